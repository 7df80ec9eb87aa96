// Package pstate implements the mutable parser configuration shared by
// both transition systems: a stack, an input buffer, a secondary pass
// buffer, and the partial dependency graph being built, together with
// the incrementally maintained valency/distance bookkeeping the
// feature extractor reads.
//
// The stack discipline (push/pop/top, out-of-range accesses returning
// a dedicated sentinel rather than panicking) follows the same shape
// as a shift-reduce driver's state stack; Configuration generalizes it
// with a second "pass" deque and multi-head arc bookkeeping.
package pstate

import "github.com/nihei9/depar/sentence"

// NIL is the sentinel returned for any out-of-range stack/buffer/pass
// access.
const NIL = -1

// Configuration is the mutable state of the transition parser at one
// step: Σ (stack), β (input buffer), Π (pass buffer) and the partial
// graph G.
type Configuration struct {
	n int

	stack []int
	next  int // index into [1..n] of the current buffer front
	pass  []int

	graph *sentence.Graph

	// leftChildren[i] / rightChildren[i] are the left/right children of
	// token i in the order their arcs were added; LeftmostChild and
	// RightmostChild pick the smallest / largest index from them.
	leftChildren  map[int][]int
	rightChildren map[int][]int

	lval, rval   map[int]int // left/right dependent valency
	lhval, rhval map[int]int // left/right head valency

	secLabel string
	secScore float64
	secOK    bool
}

// New creates the initial configuration for a sentence of n real
// tokens: Σ=[0] (ROOT), β=[1..n], Π=[], G=∅.
func New(n int) *Configuration {
	return &Configuration{
		n:             n,
		stack:         []int{sentence.Root},
		next:          1,
		graph:         sentence.NewGraph(n),
		leftChildren:  make(map[int][]int),
		rightChildren: make(map[int][]int),
		lval:          make(map[int]int),
		rval:          make(map[int]int),
		lhval:         make(map[int]int),
		rhval:         make(map[int]int),
	}
}

// NewForPair builds a scratch configuration for scoring a single
// prospective (head, dependent) pair in isolation, as driver's
// headless-repair pass does: Stack(0) is set to stackTop and Buffer(0)
// to bufferFront, with Stack(1) defaulting to ROOT and no partial graph
// attached, so the feature extractor's Σ0/β0 slots see exactly the two
// candidate tokens.
func NewForPair(n, stackTop, bufferFront int) *Configuration {
	c := New(n)
	c.stack = []int{sentence.Root, stackTop}
	c.next = bufferFront
	return c
}

// Len returns the sentence length (number of real tokens).
func (c *Configuration) Len() int {
	return c.n
}

// Graph returns the partial (or, at a terminal configuration, final)
// dependency graph.
func (c *Configuration) Graph() *sentence.Graph {
	return c.graph
}

// StackSize returns the number of tokens currently on the stack.
func (c *Configuration) StackSize() int {
	return len(c.stack)
}

// Stack returns the token k positions from the top of the stack (0 is
// the top), or NIL if out of range.
func (c *Configuration) Stack(k int) int {
	idx := len(c.stack) - 1 - k
	if idx < 0 || idx >= len(c.stack) {
		return NIL
	}
	return c.stack[idx]
}

// BufferEmpty reports whether the input buffer is exhausted.
func (c *Configuration) BufferEmpty() bool {
	return c.next > c.n
}

// Buffer returns the token k positions from the front of the input
// buffer (0 is the next token to be shifted), or NIL if out of range.
func (c *Configuration) Buffer(k int) int {
	i := c.next + k
	if i < 1 || i > c.n {
		return NIL
	}
	return i
}

// PassSize returns the number of tokens in the pass buffer.
func (c *Configuration) PassSize() int {
	return len(c.pass)
}

// Pass returns the token k positions from the top of the pass buffer
// (0 is the most recently passed token), or NIL if out of range.
func (c *Configuration) Pass(k int) int {
	idx := len(c.pass) - 1 - k
	if idx < 0 || idx >= len(c.pass) {
		return NIL
	}
	return c.pass[idx]
}

// PushStack pushes a token onto the stack. Shift and RightArc move
// the buffer front with AdvanceBuffer or DrainPassOntoStack instead.
func (c *Configuration) PushStack(tok int) {
	c.stack = append(c.stack, tok)
}

// PopStack removes and returns the top of the stack. Used by Reduce
// and LeftArc, and by the list system's moves onto the pass buffer.
func (c *Configuration) PopStack() int {
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return top
}

// PushPass moves a token onto the top of the pass buffer.
func (c *Configuration) PushPass(tok int) {
	c.pass = append(c.pass, tok)
}

// DrainPassOntoStack empties the pass buffer back onto the stack,
// restoring the relative order the tokens had before they were passed
// (each Pass popped the stack top onto Π, so replaying Π's pop order
// back onto Σ restores the original order), then advances the buffer
// by shifting its current front onto the stack. This is the List
// system's Shift transition.
func (c *Configuration) DrainPassOntoStack() {
	for len(c.pass) > 0 {
		tok := c.pass[len(c.pass)-1]
		c.pass = c.pass[:len(c.pass)-1]
		c.stack = append(c.stack, tok)
	}
	if c.next <= c.n {
		c.stack = append(c.stack, c.next)
		c.next++
	}
}

// AdvanceBuffer shifts the current buffer front onto the stack and
// advances the buffer. This is the Arc-eager system's Shift transition
// (no pass buffer involved).
func (c *Configuration) AdvanceBuffer() {
	c.stack = append(c.stack, c.next)
	c.next++
}

// HasHead reports whether token i already carries at least one
// incoming arc.
func (c *Configuration) HasHead(i int) bool {
	return c.graph.HasHead(i)
}

// HasPathTo reports whether b is reachable from a through the partial
// graph built so far (used by the no-cycle guard before adding an
// arc).
func (c *Configuration) HasPathTo(a, b int) bool {
	return c.graph.HasPathTo(a, b)
}

// AddArc attaches child to head with label, refusing self-loops and
// cycles, and updates the valency/child bookkeeping the feature
// extractor depends on.
func (c *Configuration) AddArc(head, child int, label string) error {
	if err := c.graph.AddArc(head, child, label); err != nil {
		return err
	}
	if child < head {
		c.leftChildren[head] = append(c.leftChildren[head], child)
		c.lval[head]++
		c.rhval[child]++
	} else {
		c.rightChildren[head] = append(c.rightChildren[head], child)
		c.rval[head]++
		c.lhval[child]++
	}
	return nil
}

// LeftmostChild returns the leftmost child of i, or NIL.
func (c *Configuration) LeftmostChild(i int) int {
	cs := c.leftChildren[i]
	if len(cs) == 0 {
		return NIL
	}
	best := cs[0]
	for _, x := range cs[1:] {
		if x < best {
			best = x
		}
	}
	return best
}

// RightmostChild returns the rightmost child of i, or NIL.
func (c *Configuration) RightmostChild(i int) int {
	cs := c.rightChildren[i]
	if len(cs) == 0 {
		return NIL
	}
	return cs[len(cs)-1]
}

// LeftHead returns the head of i with the smallest index (the
// "leftmost" governor under multi-head attachment), or NIL.
func (c *Configuration) LeftHead(i int) (head int, label string, ok bool) {
	heads := c.graph.Heads(i)
	if len(heads) == 0 {
		return NIL, "", false
	}
	best := heads[0]
	for _, a := range heads[1:] {
		if a.Head < best.Head {
			best = a
		}
	}
	return best.Head, best.Label, true
}

// RightHead returns the head of i with the largest index (the
// "rightmost" governor under multi-head attachment), or NIL.
func (c *Configuration) RightHead(i int) (head int, label string, ok bool) {
	heads := c.graph.Heads(i)
	if len(heads) == 0 {
		return NIL, "", false
	}
	best := heads[0]
	for _, a := range heads[1:] {
		if a.Head > best.Head {
			best = a
		}
	}
	return best.Head, best.Label, true
}

// LeftValency returns the number of left dependents attached to i.
func (c *Configuration) LeftValency(i int) int { return c.lval[i] }

// RightValency returns the number of right dependents attached to i.
func (c *Configuration) RightValency(i int) int { return c.rval[i] }

// LeftHeadValency returns the number of incoming arcs to i whose head
// lies to i's left.
func (c *Configuration) LeftHeadValency(i int) int { return c.lhval[i] }

// RightHeadValency returns the number of incoming arcs to i whose head
// lies to i's right.
func (c *Configuration) RightHeadValency(i int) int { return c.rhval[i] }

// Distance returns the signed distance between the current stack top
// and buffer front (Buffer(0) - Stack(0)), or 0 if either side is
// empty (NIL).
func (c *Configuration) Distance() int {
	top, front := c.Stack(0), c.Buffer(0)
	if top == NIL || front == NIL {
		return 0
	}
	return front - top
}

// SecondaryHead returns the recorded second-best (label, score)
// candidate for the current stack top, set by SetSecondaryHead when
// the decoder emits NS/NoArc.
func (c *Configuration) SecondaryHead() (label string, score float64, ok bool) {
	return c.secLabel, c.secScore, c.secOK
}

// SetSecondaryHead records a prospective second head for the current
// stack top without consuming input.
func (c *Configuration) SetSecondaryHead(label string, score float64) {
	c.secLabel, c.secScore, c.secOK = label, score, true
}

// ClearSecondaryHead discards any recorded secondary-head candidate.
func (c *Configuration) ClearSecondaryHead() {
	c.secLabel, c.secScore, c.secOK = "", 0, false
}
