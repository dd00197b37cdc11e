package register

import "testing"

type fakeOwner string

func (f fakeOwner) Path() string { return string(f) }

func TestCell_ResetRestoresValue(t *testing.T) {
	rv := uint64(0xAB)
	c, err := New(fakeOwner("/root/x"), "ctrl", Width8, &rv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Write(0x12)
	if got := c.Read(); got != 0x12 {
		t.Fatalf("Read() = %#x, want 0x12", got)
	}
	c.Reset(true)
	if got := c.Read(); got != 0xAB {
		t.Fatalf("after reset Read() = %#x, want 0xAB", got)
	}
	c.Reset(false)
	if got := c.Read(); got != 0xAB {
		t.Fatalf("after reset release Read() = %#x, want unchanged 0xAB", got)
	}
}

func TestCell_ResetInertRetainsValue(t *testing.T) {
	c, err := New(fakeOwner("/root/x"), "scratch", Width32, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Write(0xDEADBEEF)
	c.Reset(true)
	if got := c.Read(); got != 0xDEADBEEF {
		t.Fatalf("reset-inert cell changed value: got %#x", got)
	}
}

func TestCell_WriteMasksToWidth(t *testing.T) {
	c, err := New(fakeOwner("/root/x"), "flag", Width1, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Write(0xFF)
	if got := c.Read(); got != 1 {
		t.Fatalf("Width1 Write(0xFF) = %#x, want 1", got)
	}
}

func TestNew_RejectsInvalidWidth(t *testing.T) {
	if _, err := New(fakeOwner("/root/x"), "bad", Width(3), nil); err == nil {
		t.Fatal("expected error for invalid width")
	}
}
