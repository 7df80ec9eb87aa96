// Package driver orchestrates the transition systems, feature
// extractor and classifier into the four end-to-end operations spec.md
// §4.5 names: Train, FineTune, Predict and ExtractTransitionSequence,
// plus the headless-repair pass Predict falls back to and a SQLite-
// backed training ledger. Where the teacher's driver package drove a
// compiled LALR/SLR parsing table through shift/reduce/goto against a
// token stream, this package drives a transition.System through the
// same kind of loop against a classifier's action scores.
package driver

import (
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// TrainStats summarizes one training run: the best dev score seen and
// the data-level conditions spec.md §7 requires counting rather than
// failing on.
type TrainStats struct {
	Iterations       int
	BestScore        transition.Score
	BestIteration    int
	OracleDivergence int
	UnreachableGraph int
}

// ExtractResult is one sentence's outcome from ExtractTransitionSequence:
// either its full gold-reaching action sequence, or a note that the
// oracle diverged partway through.
type ExtractResult struct {
	Actions   []transition.Action
	Diverged  bool
}

// PredictedGraph pairs a sentence with the graph Predict produced for
// it, convenient for batch decoding and evaluation.
type PredictedGraph struct {
	Sentence *sentence.Sentence
	Graph    *sentence.Graph
}
