// Package clock implements the Clock Engine & Event Scheduler (C6): a
// per-clock-domain priority queue of events keyed by (cycle, insertion
// sequence), and a Time Engine that merges clock domains by picosecond wall
// time, tie-breaking on clock registration order then FIFO within a clock.
package clock

import "container/heap"

// Callback is invoked when its Event fires. The event's enqueued flag is
// cleared before the callback runs, so the callback may re-enqueue itself.
type Callback func(arg interface{})

// Event is a single scheduled callback on one clock domain.
type Event struct {
	callback Callback
	arg      interface{}
	enqueued bool
	cycle    uint64
	seq      uint64
	absPs    uint64
}

// NewEvent creates an event bound to callback and arg, not yet enqueued.
func NewEvent(callback Callback, arg interface{}) *Event {
	return &Event{callback: callback, arg: arg}
}

// Enqueued reports whether the event is currently scheduled.
func (e *Event) Enqueued() bool { return e.enqueued }

// eventHeap orders events within one clock domain by (cycle, seq).
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].cycle != h[j].cycle {
		return h[i].cycle < h[j].cycle
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ClockEngine is a single clock domain: a frequency, a cycle counter, and a
// local priority queue of events.
type ClockEngine struct {
	Name         string
	frequencyHz  float64
	currentCycle uint64
	nextSeq      uint64
	heap         *eventHeap

	regIndex   int
	inHeap     bool
	onActivate func(*ClockEngine)
}

// NewClockEngine creates a clock domain running at frequencyHz.
func NewClockEngine(name string, frequencyHz float64) *ClockEngine {
	h := eventHeap{}
	return &ClockEngine{Name: name, frequencyHz: frequencyHz, heap: &h}
}

// Frequency returns the clock's current rate in Hz.
func (ce *ClockEngine) Frequency() float64 { return ce.frequencyHz }

// SetFrequency changes the clock's rate. Per §4.6, the new rate applies only
// to events enqueued after this call; already-queued events keep the
// absolute picosecond time computed when they were scheduled.
func (ce *ClockEngine) SetFrequency(hz float64) { ce.frequencyHz = hz }

// CurrentCycle returns the clock's local cycle counter.
func (ce *ClockEngine) CurrentCycle() uint64 { return ce.currentCycle }

// Enqueue schedules e to fire d cycles from now. A no-op if e is already
// enqueued (at most one pending enqueue per event).
func (ce *ClockEngine) Enqueue(e *Event, d uint64) {
	if e.enqueued {
		return
	}
	e.enqueued = true
	e.cycle = ce.currentCycle + d
	e.seq = ce.nextSeq
	ce.nextSeq++
	psPerCycle := 1e12 / ce.frequencyHz
	e.absPs = uint64(float64(e.cycle) * psPerCycle)
	heap.Push(ce.heap, e)
	if !ce.inHeap && ce.onActivate != nil {
		ce.onActivate(ce)
	}
}

// Cancel clears e's enqueued flag. A canceled event never fires, even if it
// is already at the head of the queue; it is dropped the next time the
// queue is popped.
func (ce *ClockEngine) Cancel(e *Event) {
	e.enqueued = false
}

// NextPs reports the absolute picosecond time of the next live (non-canceled)
// event, discarding any dead entries found at the head along the way.
func (ce *ClockEngine) NextPs() (uint64, bool) {
	for ce.heap.Len() > 0 {
		e := (*ce.heap)[0]
		if !e.enqueued {
			heap.Pop(ce.heap)
			continue
		}
		return e.absPs, true
	}
	return 0, false
}

// FireDueEvents advances currentCycle to the next live event's cycle and
// fires every live event at that cycle, FIFO. A callback may enqueue new
// events — including on this same clock at the current cycle, which then
// fire later in this same pass, after the event currently running.
func (ce *ClockEngine) FireDueEvents() {
	first := true
	var dueCycle uint64
	for ce.heap.Len() > 0 {
		e := (*ce.heap)[0]
		if !e.enqueued {
			heap.Pop(ce.heap)
			continue
		}
		if first {
			dueCycle = e.cycle
			ce.currentCycle = dueCycle
			first = false
		} else if e.cycle != dueCycle {
			break
		}
		heap.Pop(ce.heap)
		e.enqueued = false
		e.callback(e.arg)
	}
}

// clockHeap orders clock engines by next wall time, tie-broken by
// registration order — the min-heap of (next_wall_time_ps, clock_id) the
// design notes call for, kept separate from each clock's own event queue so
// a frequency change only touches one heap entry.
type clockHeap []*ClockEngine

func (h clockHeap) Len() int { return len(h) }
func (h clockHeap) Less(i, j int) bool {
	pi, _ := h[i].NextPs()
	pj, _ := h[j].NextPs()
	if pi != pj {
		return pi < pj
	}
	return h[i].regIndex < h[j].regIndex
}
func (h clockHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *clockHeap) Push(x interface{}) {
	*h = append(*h, x.(*ClockEngine))
}
func (h *clockHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TimeEngine is the global scheduler merging clock domains by wall time.
type TimeEngine struct {
	heap          clockHeap
	regCounter    int
	stopRequested bool
	globalPs      uint64
}

// NewTimeEngine creates an empty time engine.
func NewTimeEngine() *TimeEngine { return &TimeEngine{} }

// Register adds a clock domain, assigning it the next registration order
// (used as the cross-domain tie-break). Safe to call with a clock that
// already has pending events, and idempotent — a clock engine distributed
// to several components via a clock port (each invoking RegisterClock) is
// only actually registered with the time engine once.
func (te *TimeEngine) Register(ce *ClockEngine) {
	if ce.onActivate != nil {
		return
	}
	ce.regIndex = te.regCounter
	te.regCounter++
	ce.onActivate = te.activate
	if _, ok := ce.NextPs(); ok {
		te.activate(ce)
	}
}

func (te *TimeEngine) activate(ce *ClockEngine) {
	if ce.inHeap {
		return
	}
	ce.inHeap = true
	heap.Push(&te.heap, ce)
}

// GlobalPs returns the simulated wall time in picoseconds as of the last
// processed batch.
func (te *TimeEngine) GlobalPs() uint64 { return te.globalPs }

// RequestStop asks Run to return after the in-flight batch completes.
func (te *TimeEngine) RequestStop() { te.stopRequested = true }

// StopRequested reports whether RequestStop has been called.
func (te *TimeEngine) StopRequested() bool { return te.stopRequested }

// Step processes exactly one clock domain's due events (the earliest by wall
// time) and returns false if no clock has a pending event.
func (te *TimeEngine) Step() bool {
	// A clock already in the heap may have gained an earlier event or lost
	// its head to Cancel since it was pushed; re-establish the ordering on
	// current NextPs values before popping.
	heap.Init(&te.heap)
	for te.heap.Len() > 0 {
		ce := heap.Pop(&te.heap).(*ClockEngine)
		ce.inHeap = false
		ps, ok := ce.NextPs()
		if !ok {
			continue
		}
		te.globalPs = ps
		ce.FireDueEvents()
		if _, ok := ce.NextPs(); ok && !ce.inHeap {
			te.activate(ce)
		}
		return true
	}
	return false
}

// Run drains events until RequestStop is called or no clock has pending work.
func (te *TimeEngine) Run() {
	for !te.stopRequested {
		if !te.Step() {
			return
		}
	}
}
