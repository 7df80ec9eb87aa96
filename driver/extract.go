package driver

import (
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// ExtractTransitionSequence walks sys's static oracle over each
// (sentence, gold graph) pair, recording the action sequence that
// reconstructs gold. A sentence the oracle cannot fully resolve (a
// multi-head or otherwise unreachable gold graph, per transition.System's
// single-gold-head oracle) is reported with Diverged set rather than
// failing the whole batch — spec.md §7 treats oracle divergence and
// unreachable graphs as counted conditions, not fatal errors.
func ExtractTransitionSequence(sys transition.System, sents []*sentence.Sentence, golds []*sentence.Graph) ([]ExtractResult, TrainStats) {
	results := make([]ExtractResult, len(sents))
	var stats TrainStats

	for i, sent := range sents {
		gold := golds[i]
		c := pstate.New(sent.Len())
		var actions []transition.Action

		diverged := false
		for !sys.IsTerminal(c) {
			a, ok := sys.Oracle(c, gold)
			if !ok {
				diverged = true
				break
			}
			actions = append(actions, a)
			sys.Apply(c, a)
		}
		if !diverged && !c.Graph().Equal(gold) {
			diverged = true
			stats.UnreachableGraph++
		} else if diverged {
			stats.OracleDivergence++
		}

		results[i] = ExtractResult{Actions: actions, Diverged: diverged}
	}

	return results, stats
}
