package transition

import (
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
)

// ArcEager is the arc-eager transition system extended with a
// non-consuming NoShift move for secondary (multi-head) arcs.
//
// NoShift never appears as a primary action: the oracle (Oracle below)
// only ever returns Shift/Reduce/LeftArc/RightArc or diverges. NoShift
// is driven by the decoder once a primary action is exhausted but a
// secondary attachment is still possible (see driver.Predict); its
// Label packs a direction prefix ("L:" or "R:") followed by the arc
// label, since — unlike LeftArc/RightArc — a single NoShift slot in
// the classifier's output layer must stand in for both directions.
type ArcEager struct{}

// NewArcEager returns an ArcEager transition system.
func NewArcEager() *ArcEager { return &ArcEager{} }

func (sys *ArcEager) Name() string { return "arc-eager" }

// Actions enumerates {Shift, Reduce, NoShift} ∪ {LeftArc(l), RightArc(l) : l ∈ labels}.
func (sys *ArcEager) Actions(labels []string) []Action {
	actions := []Action{{Kind: Shift}, {Kind: Reduce}, {Kind: NoShift}}
	for _, l := range labels {
		actions = append(actions, Action{Kind: LeftArc, Label: l})
	}
	for _, l := range labels {
		actions = append(actions, Action{Kind: RightArc, Label: l})
	}
	return actions
}

func (sys *ArcEager) IsTerminal(c *pstate.Configuration) bool {
	return c.BufferEmpty() && c.StackSize() <= 1
}

func (sys *ArcEager) CanApply(c *pstate.Configuration, a Action) bool {
	s, b := c.Stack(0), c.Buffer(0)
	switch a.Kind {
	case Shift:
		return !c.BufferEmpty()
	case Reduce:
		return s != pstate.NIL && s != sentence.Root && c.HasHead(s)
	case LeftArc:
		if s == pstate.NIL || b == pstate.NIL || s == sentence.Root {
			return false
		}
		return !c.HasHead(s) && !c.HasPathTo(s, b)
	case RightArc:
		if s == pstate.NIL || b == pstate.NIL {
			return false
		}
		return !c.HasHead(b) && !c.HasPathTo(b, s)
	case NoShift:
		dir, _, ok := SplitSecondaryLabel(a.Label)
		if !ok || s == pstate.NIL || b == pstate.NIL || s == sentence.Root {
			return false
		}
		if dir == 'L' {
			return !c.HasPathTo(s, b)
		}
		return !c.HasPathTo(b, s)
	default:
		return false
	}
}

func (sys *ArcEager) Apply(c *pstate.Configuration, a Action) {
	s, b := c.Stack(0), c.Buffer(0)
	switch a.Kind {
	case Shift:
		c.AdvanceBuffer()
	case Reduce:
		c.PopStack()
	case LeftArc:
		mustAddArc(c, b, s, a.Label)
		c.PopStack()
	case RightArc:
		mustAddArc(c, s, b, a.Label)
		c.AdvanceBuffer()
	case NoShift:
		dir, rel, _ := SplitSecondaryLabel(a.Label)
		if dir == 'L' {
			mustAddArc(c, b, s, rel)
		} else {
			mustAddArc(c, s, b, rel)
		}
	default:
		panic("transition: arc-eager cannot apply " + a.String())
	}
}

// Oracle implements the classic arc-eager static oracle generalized
// to a single-gold-head view of the gold graph: it never emits
// NoShift (see the ArcEager doc comment).
func (sys *ArcEager) Oracle(c *pstate.Configuration, gold *sentence.Graph) (Action, bool) {
	s, b := c.Stack(0), c.Buffer(0)

	if s != pstate.NIL && b != pstate.NIL {
		if h, l, ok := singleHead(gold, s); ok && h == b {
			a := Action{Kind: LeftArc, Label: l}
			if sys.CanApply(c, a) {
				return a, true
			}
		}
		if h, l, ok := singleHead(gold, b); ok && h == s {
			a := Action{Kind: RightArc, Label: l}
			if sys.CanApply(c, a) {
				return a, true
			}
		}
	}

	if s != pstate.NIL && s != sentence.Root && c.HasHead(s) && !hasRemainingGoldLink(c, gold, s) {
		a := Action{Kind: Reduce}
		if sys.CanApply(c, a) {
			return a, true
		}
	}

	if !c.BufferEmpty() {
		return Action{Kind: Shift}, true
	}

	return Action{}, false
}

func (sys *ArcEager) CanProcess(gold *sentence.Graph) bool {
	c := pstate.New(gold.Len())
	if _, ok := Run(sys, c, gold); !ok {
		return false
	}
	return c.Graph().Equal(gold)
}

func (sys *ArcEager) Evaluate(predicted, gold []*sentence.Graph) Score {
	return evaluate(predicted, gold)
}

// singleHead returns i's single gold head, reporting ok=false when i
// has zero or more than one gold head (a multi-head token, which the
// arc-eager primary oracle cannot reconstruct — CanProcess relies on
// this to reject such graphs).
func singleHead(g *sentence.Graph, i int) (head int, label string, ok bool) {
	heads := g.Heads(i)
	if len(heads) != 1 {
		return 0, "", false
	}
	return heads[0].Head, heads[0].Label, true
}

// hasRemainingGoldLink reports whether s still has unresolved business
// with some token still in the buffer: either s is that token's gold
// head, or that token is s's gold head.
func hasRemainingGoldLink(c *pstate.Configuration, gold *sentence.Graph, s int) bool {
	sHead, _, sHasHead := singleHead(gold, s)
	for k := 0; ; k++ {
		d := c.Buffer(k)
		if d == pstate.NIL {
			return false
		}
		if h, _, ok := singleHead(gold, d); ok && h == s {
			return true
		}
		if sHasHead && sHead == d {
			return true
		}
	}
}

func mustAddArc(c *pstate.Configuration, head, child int, label string) {
	if err := c.AddArc(head, child, label); err != nil {
		panic("transition: " + err.Error())
	}
}
