// Package transition implements the two transition systems depar can
// drive a Configuration with — an arc-eager system extended with a
// non-consuming NoShift move for secondary (multi-head) arcs, and a
// list-based system using a pass buffer to revisit stack entries —
// together with each system's oracle.
//
// Both systems are exposed behind the same System interface and
// dispatched dynamically, the way the teacher's grammar package lets
// LALR(1) and SLR(1) table construction share one entry point despite
// building their item sets differently.
package transition

import (
	"strings"

	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
)

// ActionKind discriminates the moves a System can apply.
type ActionKind uint8

const (
	Shift ActionKind = iota
	Reduce
	LeftArc
	RightArc
	NoShift // arc-eager secondary-arc move
	Pass    // list-system move
	NoArc   // list-system secondary-arc move
)

func (k ActionKind) String() string {
	switch k {
	case Shift:
		return "SHIFT"
	case Reduce:
		return "REDUCE"
	case LeftArc:
		return "LEFT-ARC"
	case RightArc:
		return "RIGHT-ARC"
	case NoShift:
		return "NS"
	case Pass:
		return "PASS"
	case NoArc:
		return "NO-ARC"
	default:
		return "?"
	}
}

// Action is one transition: a kind plus, for LeftArc/RightArc, the arc
// label.
type Action struct {
	Kind  ActionKind
	Label string
}

func (a Action) String() string {
	if a.Kind == LeftArc || a.Kind == RightArc {
		return a.Kind.String() + "(" + a.Label + ")"
	}
	return a.Kind.String()
}

// SplitSecondaryLabel parses the "L:rel"/"R:rel" direction-prefixed
// label that NoShift (arc-eager) and NoArc (list-system) actions
// carry, since a single classifier output slot stands in for both
// attachment directions of a secondary arc.
func SplitSecondaryLabel(label string) (dir byte, rel string, ok bool) {
	if len(label) < 2 || label[1] != ':' || (label[0] != 'L' && label[0] != 'R') {
		return 0, "", false
	}
	return label[0], label[2:], true
}

// JoinSecondaryLabel builds the direction-prefixed label
// SplitSecondaryLabel parses.
func JoinSecondaryLabel(dir byte, rel string) string {
	var b strings.Builder
	b.WriteByte(dir)
	b.WriteByte(':')
	b.WriteString(rel)
	return b.String()
}

// ErrDiverged is the sentinel "-E-" outcome of a divergent oracle call:
// the configuration has already diverged from any sequence that could
// reach the gold graph.
var ErrDiverged = Action{}

// Score collects the arc-set comparison metrics spec.md §4.1 asks
// Evaluate to produce.
type Score struct {
	UnlabeledF   float64
	LabeledF     float64
	NonLocalArcF float64
	RootAccuracy float64
}

// System is a transition system: an action alphabet, an applicability
// predicate, an apply function, an oracle, a terminal test, a
// processability test and an evaluator.
type System interface {
	// Name identifies the system ("arc-eager" or "list-system").
	Name() string

	// Actions enumerates the full action alphabet for a label set.
	Actions(labels []string) []Action

	// IsTerminal reports whether c is a terminal configuration.
	IsTerminal(c *pstate.Configuration) bool

	// CanApply reports whether a can be applied to c.
	CanApply(c *pstate.Configuration, a Action) bool

	// Apply mutates c by applying a. The caller must have checked
	// CanApply first; Apply panics on an inapplicable action.
	Apply(c *pstate.Configuration, a Action)

	// Oracle returns the canonical action that advances c toward
	// gold, or ok=false if c has already diverged ("-E-").
	Oracle(c *pstate.Configuration, gold *sentence.Graph) (a Action, ok bool)

	// CanProcess reports whether gold is reachable from the initial
	// configuration by some sequence of primary oracle actions under
	// this system's semantics.
	CanProcess(gold *sentence.Graph) bool

	// Evaluate scores predicted against gold by arc-set comparison.
	Evaluate(predicted, gold []*sentence.Graph) Score
}

// Run drives c to a terminal configuration by repeatedly asking sys's
// oracle for the next action and applying it. It returns the number of
// actions applied and false if the oracle diverged partway through
// (in which case c is left at the point of divergence).
func Run(sys System, c *pstate.Configuration, gold *sentence.Graph) (int, bool) {
	steps := 0
	for !sys.IsTerminal(c) {
		a, ok := sys.Oracle(c, gold)
		if !ok {
			return steps, false
		}
		sys.Apply(c, a)
		steps++
	}
	return steps, true
}

// evaluate implements the shared arc-set scoring used by both
// systems' Evaluate methods.
func evaluate(predicted, gold []*sentence.Graph) Score {
	var unlabTP, unlabPred, unlabGold float64
	var labTP, labPred, labGold float64
	var nlTP, nlPred, nlGold float64
	var rootCorrect, rootTotal float64

	for si, p := range predicted {
		g := gold[si]
		for i := 1; i <= g.Len(); i++ {
			gHeads := g.Heads(i)
			pHeads := p.Heads(i)
			unlabGold += float64(len(gHeads))
			unlabPred += float64(len(pHeads))
			labGold += float64(len(gHeads))
			labPred += float64(len(pHeads))
			if len(gHeads) > 1 {
				nlGold += float64(len(gHeads) - 1)
			}
			if len(pHeads) > 1 {
				nlPred += float64(len(pHeads) - 1)
			}

			for gi, ga := range gHeads {
				for _, pa := range pHeads {
					if pa.Head == ga.Head {
						unlabTP++
						if pa.Label == ga.Label {
							labTP++
						}
						if gi > 0 {
							nlTP++
						}
						break
					}
				}
			}

			if hasRootHead(gHeads) {
				rootTotal++
				if hasRootHead(pHeads) {
					rootCorrect++
				}
			}
		}
	}

	return Score{
		UnlabeledF:   f1(unlabTP, unlabPred, unlabGold),
		LabeledF:     f1(labTP, labPred, labGold),
		NonLocalArcF: f1(nlTP, nlPred, nlGold),
		RootAccuracy: safeDiv(rootCorrect, rootTotal),
	}
}

func hasRootHead(arcs []sentence.Arc) bool {
	for _, a := range arcs {
		if a.Head == sentence.Root {
			return true
		}
	}
	return false
}

func f1(tp, pred, gold float64) float64 {
	p := safeDiv(tp, pred)
	r := safeDiv(tp, gold)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
