package driver

import (
	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// Repair attaches every token graph.Headless() still reports once Predict's
// transition loop has terminated, per spec.md §4.5: for each such token i,
// scan candidate governors forward then backward from i, score each
// candidate attachment with the classifier's LeftArc/RightArc logits over a
// scratch two-token configuration, and take the best-scoring acyclic
// attachment found. A token with no acyclic candidate at all falls back to
// ROOT under rootLabel.
func Repair(ext *feature.Extractor, m *classifier.Model, sent *sentence.Sentence, graph *sentence.Graph, rootLabel string) *sentence.Graph {
	n := sent.Len()
	for _, i := range graph.Headless() {
		if graph.HasHead(i) {
			continue // resolved by an earlier repair in this same pass
		}
		head, label, ok := bestGovernor(ext, m, sent, graph, i, n)
		if !ok {
			head, label = sentence.Root, rootLabel
		}
		// AddArc cannot fail here: head/label were chosen from candidates
		// already checked acyclic, and the ROOT fallback always succeeds.
		_ = graph.AddArc(head, i, label)
	}
	return graph
}

// bestGovernor scans j = i+1, i+2, ..., n then j = i-1, i-2, ..., 1,
// scoring the (i, j) attachment in both directions via a scratch
// configuration built with pstate.NewForPair(n, min(i,j), max(i,j)):
// Stack(0) always holds the smaller index and Buffer(0) the larger,
// exactly as every real configuration the classifier was trained on is
// laid out, regardless of which side of i the scan is currently on.
// Direction (does i depend on j via LeftArc or RightArc) is decided
// separately, by comparing candChild and candHead. bestGovernor returns
// the single highest-scoring acyclic candidate across the whole scan.
func bestGovernor(ext *feature.Extractor, m *classifier.Model, sent *sentence.Sentence, graph *sentence.Graph, i, n int) (head int, label string, ok bool) {
	bestScore := 0.0
	found := false

	consider := func(candHead, candChild int) {
		if graph.HasPathTo(candChild, candHead) {
			return // would close a cycle
		}
		lo, hi := candHead, candChild
		if lo > hi {
			lo, hi = hi, lo
		}
		c := pstate.NewForPair(n, lo, hi)
		logits := m.Score(ext.Extract(c, sent))
		for ai, a := range m.Actions {
			if a.Kind != transition.LeftArc && a.Kind != transition.RightArc {
				continue
			}
			dependsOn := (candChild < candHead && a.Kind == transition.LeftArc) ||
				(candChild > candHead && a.Kind == transition.RightArc)
			if !dependsOn {
				continue
			}
			if !found || logits[ai] > bestScore {
				bestScore = logits[ai]
				head, label, ok = candHead, a.Label, true
				found = true
			}
		}
	}

	for j := i + 1; j <= n; j++ {
		consider(j, i)
	}
	for j := i - 1; j >= 1; j-- {
		consider(j, i)
	}

	return head, label, ok
}
