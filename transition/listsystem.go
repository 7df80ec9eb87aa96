package transition

import (
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
)

// ListSystem is the list-based transition system (Choi & Palmer): a
// pass buffer Π lets the stack top be revisited instead of discarded,
// so a token can receive more than one head without being shifted
// again. Shift drains Π back onto Σ and then moves β's front onto Σ,
// following Configuration.DrainPassOntoStack's semantics.
type ListSystem struct{}

// NewListSystem returns a ListSystem transition system.
func NewListSystem() *ListSystem { return &ListSystem{} }

func (sys *ListSystem) Name() string { return "list-system" }

// Actions enumerates {Shift, Pass, NoArc} ∪ {LeftArc(l), RightArc(l) : l ∈ labels}.
func (sys *ListSystem) Actions(labels []string) []Action {
	actions := []Action{{Kind: Shift}, {Kind: Pass}, {Kind: NoArc}}
	for _, l := range labels {
		actions = append(actions, Action{Kind: LeftArc, Label: l})
	}
	for _, l := range labels {
		actions = append(actions, Action{Kind: RightArc, Label: l})
	}
	return actions
}

// IsTerminal holds once both the input buffer and the pass buffer are
// empty: nothing remains to shift and nothing remains to revisit.
func (sys *ListSystem) IsTerminal(c *pstate.Configuration) bool {
	return c.BufferEmpty() && c.PassSize() == 0
}

func (sys *ListSystem) CanApply(c *pstate.Configuration, a Action) bool {
	s, b := c.Stack(0), c.Buffer(0)
	switch a.Kind {
	case Shift:
		return !c.BufferEmpty() || c.PassSize() > 0
	case Pass, NoArc:
		return s != pstate.NIL && s != sentence.Root
	case LeftArc:
		if s == pstate.NIL || b == pstate.NIL || s == sentence.Root {
			return false
		}
		return !c.HasPathTo(s, b)
	case RightArc:
		if s == pstate.NIL || b == pstate.NIL {
			return false
		}
		return !c.HasPathTo(b, s)
	default:
		return false
	}
}

// Apply mutates c per the list-system semantics: LeftArc/RightArc/Pass/
// NoArc all move the stack top onto the pass buffer rather than
// discarding or re-pushing it, so a later Shift can restore it to the
// stack alongside the newly shifted token.
func (sys *ListSystem) Apply(c *pstate.Configuration, a Action) {
	s, b := c.Stack(0), c.Buffer(0)
	switch a.Kind {
	case Shift:
		c.DrainPassOntoStack()
	case Pass, NoArc:
		c.PushPass(c.PopStack())
	case LeftArc:
		mustAddArc(c, b, s, a.Label)
		c.PushPass(c.PopStack())
	case RightArc:
		mustAddArc(c, s, b, a.Label)
		c.PushPass(c.PopStack())
	default:
		panic("transition: list-system cannot apply " + a.String())
	}
}

// Oracle prefers attaching s to b (LeftArc) or b to s (RightArc) over
// passing s by, and only shifts once nothing more can be attached with
// s still on the stack. Like ArcEager's, it never emits a secondary
// move (NoArc): that is the decoder's business once the primary oracle
// has nothing left to say (see the ArcEager doc comment).
func (sys *ListSystem) Oracle(c *pstate.Configuration, gold *sentence.Graph) (Action, bool) {
	s, b := c.Stack(0), c.Buffer(0)

	if s != pstate.NIL && b != pstate.NIL {
		for _, arc := range gold.Heads(s) {
			if arc.Head == b {
				a := Action{Kind: LeftArc, Label: arc.Label}
				if sys.CanApply(c, a) {
					return a, true
				}
			}
		}
		for _, arc := range gold.Heads(b) {
			if arc.Head == s {
				a := Action{Kind: RightArc, Label: arc.Label}
				if sys.CanApply(c, a) {
					return a, true
				}
			}
		}
	}

	if s != pstate.NIL && s != sentence.Root && c.StackSize() > 1 && !hasRemainingGoldLinkList(c, gold, s) {
		a := Action{Kind: Pass}
		if sys.CanApply(c, a) {
			return a, true
		}
	}

	if !c.BufferEmpty() || c.PassSize() > 0 {
		return Action{Kind: Shift}, true
	}

	return Action{}, false
}

// hasRemainingGoldLinkList reports whether s still has unresolved gold
// business with some token still reachable ahead of it (on the buffer
// or already set aside in the pass buffer), mirroring arc-eager's
// hasRemainingGoldLink but across both deques since the list system
// keeps candidates alive in Π instead of discarding them.
func hasRemainingGoldLinkList(c *pstate.Configuration, gold *sentence.Graph, s int) bool {
	linksTo := func(d int) bool {
		if d == pstate.NIL {
			return false
		}
		for _, arc := range gold.Heads(s) {
			if arc.Head == d {
				return true
			}
		}
		for _, arc := range gold.Heads(d) {
			if arc.Head == s {
				return true
			}
		}
		return false
	}
	for k := 0; ; k++ {
		d := c.Buffer(k)
		if d == pstate.NIL {
			break
		}
		if linksTo(d) {
			return true
		}
	}
	for k := 0; ; k++ {
		d := c.Pass(k)
		if d == pstate.NIL {
			break
		}
		if linksTo(d) {
			return true
		}
	}
	return false
}

func (sys *ListSystem) CanProcess(gold *sentence.Graph) bool {
	c := pstate.New(gold.Len())
	if _, ok := Run(sys, c, gold); !ok {
		return false
	}
	return c.Graph().Equal(gold)
}

func (sys *ListSystem) Evaluate(predicted, gold []*sentence.Graph) Score {
	return evaluate(predicted, gold)
}
