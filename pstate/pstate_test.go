package pstate

import "testing"

func TestNew_InitialConfiguration(t *testing.T) {
	c := New(3)
	if c.Stack(0) != 0 {
		t.Fatalf("expected stack top to be ROOT, got %d", c.Stack(0))
	}
	if c.Buffer(0) != 1 {
		t.Fatalf("expected buffer front to be 1, got %d", c.Buffer(0))
	}
	if !c.BufferEmpty() && c.Buffer(3) != NIL {
		t.Fatalf("expected out-of-range buffer access to be NIL")
	}
}

func TestConfiguration_OutOfRangeReturnsNIL(t *testing.T) {
	c := New(1)
	if c.Stack(5) != NIL {
		t.Fatal("expected NIL for out-of-range stack access")
	}
	if c.Pass(0) != NIL {
		t.Fatal("expected NIL for empty pass buffer")
	}
}

func TestConfiguration_AddArcUpdatesValency(t *testing.T) {
	c := New(3)
	if err := c.AddArc(2, 1, "det"); err != nil {
		t.Fatal(err)
	}
	if c.LeftValency(2) != 1 {
		t.Fatalf("expected left valency 1, got %d", c.LeftValency(2))
	}
	if c.RightHeadValency(1) != 1 {
		t.Fatalf("expected right head valency 1, got %d", c.RightHeadValency(1))
	}
	if c.LeftmostChild(2) != 1 {
		t.Fatalf("expected leftmost child of 2 to be 1, got %d", c.LeftmostChild(2))
	}
}

func TestConfiguration_DrainPassOntoStackPreservesOrder(t *testing.T) {
	c := New(5)
	c.AdvanceBuffer() // stack=[0,1], next=2
	c.AdvanceBuffer() // stack=[0,1,2], next=3

	passed := c.PopStack() // simulate Pass moving top (2) to Π
	c.PushPass(passed)

	c.DrainPassOntoStack() // restores 2, then shifts buffer front (3)

	if c.Stack(0) != 3 || c.Stack(1) != 2 || c.Stack(2) != 1 || c.Stack(3) != 0 {
		t.Fatalf("unexpected stack order: %d %d %d %d", c.Stack(0), c.Stack(1), c.Stack(2), c.Stack(3))
	}
}
