package clock

import "testing"

func TestClockDomainMerging(t *testing.T) {
	// Clock A at 100 MHz schedules E1 at cycle 10 (100ns).
	// Clock B at 50 MHz schedules E2 at cycle 5 (100ns).
	// Registration order A, B. Expected fire order: E1 then E2.
	te := NewTimeEngine()
	a := NewClockEngine("A", 100e6)
	b := NewClockEngine("B", 50e6)
	te.Register(a)
	te.Register(b)

	var order []string
	e1 := NewEvent(func(interface{}) { order = append(order, "E1") }, nil)
	e2 := NewEvent(func(interface{}) { order = append(order, "E2") }, nil)
	a.Enqueue(e1, 10)
	b.Enqueue(e2, 5)

	te.Run()

	if len(order) != 2 || order[0] != "E1" || order[1] != "E2" {
		t.Fatalf("fire order = %v, want [E1 E2]", order)
	}
	if te.GlobalPs() != 100_000 {
		t.Fatalf("GlobalPs() = %d, want 100000 (100ns)", te.GlobalPs())
	}
}

func TestCancellationDuringFire(t *testing.T) {
	// E1 at cycle 5 whose callback enqueues E2 at cycle 5 then cancels E2.
	// Only E1 fires.
	ce := NewClockEngine("C", 1e6)
	var fired []string
	var e2 *Event
	e1 := NewEvent(func(interface{}) {
		fired = append(fired, "E1")
		e2 = NewEvent(func(interface{}) { fired = append(fired, "E2") }, nil)
		ce.Enqueue(e2, 0)
		ce.Cancel(e2)
	}, nil)
	ce.Enqueue(e1, 5)
	ce.FireDueEvents()

	if len(fired) != 1 || fired[0] != "E1" {
		t.Fatalf("fired = %v, want [E1]", fired)
	}
	if e2.Enqueued() {
		t.Fatal("e2 should not be enqueued after cancel")
	}
}

func TestEnqueueThenCancelNeverFires(t *testing.T) {
	ce := NewClockEngine("C", 1e6)
	fired := false
	e := NewEvent(func(interface{}) { fired = true }, nil)
	ce.Enqueue(e, 0)
	ce.Cancel(e)
	ce.FireDueEvents()
	if fired {
		t.Fatal("canceled event fired")
	}
}

func TestSameClockSameCycleReenqueueFiresFIFOAfterCurrent(t *testing.T) {
	// Event enqueued at cycle 0 from within a firing of cycle 0 fires at
	// cycle 0 in FIFO after the current event.
	ce := NewClockEngine("C", 1e6)
	var order []string
	e1 := NewEvent(func(interface{}) {
		order = append(order, "E1")
		e2 := NewEvent(func(interface{}) { order = append(order, "E2") }, nil)
		ce.Enqueue(e2, 0)
	}, nil)
	ce.Enqueue(e1, 0)
	ce.FireDueEvents()

	if len(order) != 2 || order[0] != "E1" || order[1] != "E2" {
		t.Fatalf("order = %v, want [E1 E2]", order)
	}
}

func TestDuplicateEnqueueRejected(t *testing.T) {
	ce := NewClockEngine("C", 1e6)
	count := 0
	e := NewEvent(func(interface{}) { count++ }, nil)
	ce.Enqueue(e, 3)
	ce.Enqueue(e, 7) // rejected: already enqueued
	ce.currentCycle = 3
	ce.FireDueEvents()
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestPopOrderNonDecreasingCycleThenFIFO(t *testing.T) {
	ce := NewClockEngine("C", 1e6)
	var order []int
	mk := func(id int) *Event {
		return NewEvent(func(interface{}) { order = append(order, id) }, nil)
	}
	ce.Enqueue(mk(1), 2)
	ce.Enqueue(mk(2), 0)
	ce.Enqueue(mk(3), 0)
	ce.Enqueue(mk(4), 1)

	for ce.heap.Len() > 0 {
		ce.FireDueEvents()
	}

	want := []int{2, 3, 4, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
