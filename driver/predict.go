package driver

import (
	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// Predict decodes sent into a dependency graph by greedily applying the
// classifier's highest-scoring applicable action at each step, the way
// the teacher's driver drove its parsing table by repeatedly consulting
// the LALR/SLR action table instead of a gold oracle.
//
// Per design note 1, NoShift/NoArc are never the primary choice at a
// configuration: they are only attempted once no Shift/Reduce/Pass/
// LeftArc/RightArc action applies, and then only the best-scoring
// applicable direction+label combination (scored via the LeftArc/
// RightArc logits already computed this step) is applied. Any token
// still headless once the system reaches a terminal configuration is
// handed to Repair.
func Predict(sys transition.System, ext *feature.Extractor, m *classifier.Model, sent *sentence.Sentence, rootLabel string) *sentence.Graph {
	c := pstate.New(sent.Len())
	secondaryKind := secondaryKindFor(sys)

	for !sys.IsTerminal(c) {
		logits := m.Score(ext.Extract(c, sent))

		if a, ok := bestPrimary(sys, c, m.Actions, logits); ok {
			sys.Apply(c, a)
			continue
		}

		if a, label, score, ok := bestSecondary(sys, c, m.Actions, logits, secondaryKind); ok {
			c.SetSecondaryHead(label, score)
			sys.Apply(c, a)
			c.ClearSecondaryHead()
			continue
		}

		// Genuinely stuck: neither a primary nor a secondary action
		// applies, yet the configuration is not terminal (this only
		// arises when the stack holds a token with no head and an
		// empty buffer leaves Reduce/LeftArc/RightArc all inapplicable).
		// Force progress so the loop always reaches IsTerminal, leaving
		// the token headless for Repair to resolve afterward.
		if !c.BufferEmpty() {
			c.AdvanceBuffer()
		} else {
			c.PopStack()
		}
	}

	return Repair(ext, m, sent, c.Graph(), rootLabel)
}

// secondaryKindFor returns the ActionKind the decoder should try once no
// primary action applies: NoShift for arc-eager, NoArc for the list
// system.
func secondaryKindFor(sys transition.System) transition.ActionKind {
	if sys.Name() == "arc-eager" {
		return transition.NoShift
	}
	return transition.NoArc
}

// bestPrimary returns the highest-scoring applicable action other than
// NoShift/NoArc, ties broken by Actions' enumeration order.
func bestPrimary(sys transition.System, c *pstate.Configuration, actions []transition.Action, logits []float64) (transition.Action, bool) {
	bestIdx := -1
	for i, a := range actions {
		if a.Kind == transition.NoShift || a.Kind == transition.NoArc {
			continue
		}
		if !sys.CanApply(c, a) {
			continue
		}
		if bestIdx == -1 || logits[i] > logits[bestIdx] {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return transition.Action{}, false
	}
	return actions[bestIdx], true
}

// bestSecondary scores every applicable secondary attachment by reusing
// the LeftArc/RightArc logit already computed for that label, since the
// classifier's single NoShift/NoArc slot only signals "attach now" and
// carries no label of its own. It returns the concrete direction-
// prefixed action to apply along with the label and score recorded via
// Configuration.SetSecondaryHead.
func bestSecondary(sys transition.System, c *pstate.Configuration, actions []transition.Action, logits []float64, kind transition.ActionKind) (transition.Action, string, float64, bool) {
	bestIdx := -1
	var bestAction transition.Action
	for i, a := range actions {
		var dir byte
		switch a.Kind {
		case transition.LeftArc:
			dir = 'L'
		case transition.RightArc:
			dir = 'R'
		default:
			continue
		}
		cand := transition.Action{Kind: kind, Label: transition.JoinSecondaryLabel(dir, a.Label)}
		if !sys.CanApply(c, cand) {
			continue
		}
		if bestIdx == -1 || logits[i] > logits[bestIdx] {
			bestIdx = i
			bestAction = cand
		}
	}
	if bestIdx == -1 {
		return transition.Action{}, "", 0, false
	}
	return bestAction, bestAction.Label, logits[bestIdx], true
}
