package driver

import (
	"os"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/dataset"
	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/engconfig"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/perr"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// FineTuneOptions collects FineTune's inputs beyond the source model and
// target-language training data.
type FineTuneOptions struct {
	Cfg    *engconfig.Config
	Sys    transition.System
	Source *classifier.Model

	// TargetEmbeddingsPath points at the target language's pretrained
	// word embeddings; its rows replace the source model's word block
	// while the three trailing sentinel rows (UNKNOWN/NIL/ROOT) are kept
	// as-is, per spec.md §4.5.
	TargetEmbeddingsPath string

	Ledger *Ledger
}

// FineTune adapts a source-language model to a target language by
// swapping its word-embedding block and running a short additional
// training pass, per spec.md §4.5's cross-lingual transfer recipe:
// fix_word_embeddings is forced true so only the three sentinel rows
// (and the rest of the network) continue to move.
//
// design note 4 (SPEC_FULL.md §9) logs FinetuneIter as iter+1 — cosmetic
// only, matched here in the iteration-count argument to RecordEval.
func FineTune(opts FineTuneOptions, targetSents []*sentence.Sentence, targetGolds []*sentence.Graph, devSents []*sentence.Sentence, devGolds []*sentence.Graph) (*classifier.Model, *feature.Extractor, TrainStats, error) {
	m := opts.Source
	d := m.Dict

	if opts.TargetEmbeddingsPath != "" {
		f, err := os.Open(opts.TargetEmbeddingsPath)
		if err != nil {
			return nil, nil, TrainStats{}, perr.Wrap(perr.IOFailure, opts.TargetEmbeddingsPath, "cannot open target embeddings", err)
		}
		clearNonSentinelWordRows(m, d)
		_, err = classifier.LoadEmbeddings(f, m)
		f.Close()
		if err != nil {
			return nil, nil, TrainStats{}, err
		}
	}
	m.FixWordEmbeddings = true

	labels := actionLabels(d)
	ext := feature.NewExtractor(m.Flags, d)
	ds := dataset.NewBuilder(opts.Sys, labels, ext).Build(targetSents, targetGolds)
	opt := classifier.NewOptimizer(m, opts.Cfg.LearningRate, opts.Cfg.Epsilon, opts.Cfg.L2)

	stats := TrainStats{}
	var bestScore transition.Score
	bestIteration := 0

	// The target-language training set is typically small (spec.md
	// §4.5), so each fine-tuning step runs as a single full-batch
	// AdaGrad update rather than sampling minibatches the way Train does.
	for iter := 1; iter <= opts.Cfg.FinetuneIter; iter++ {
		m.TrainMinibatch(ds.Samples, opt, opts.Cfg.TrainingThreads)
		stats.Iterations = iter

		if opts.Cfg.EvalPerIter > 0 && iter%opts.Cfg.EvalPerIter == 0 {
			score := evaluateDev(opts.Sys, ext, m, devSents, devGolds, opts.Cfg.RootLabel)
			loggedIter := iter + 1 // design note 4: cosmetic off-by-one in the ledger
			if opts.Ledger != nil {
				opts.Ledger.RecordEval(loggedIter, score.LabeledF, score.UnlabeledF)
			}
			if bestIteration == 0 || score.LabeledF > bestScore.LabeledF {
				bestScore = score
				bestIteration = iter
			}
		}
	}

	stats.BestIteration = bestIteration
	stats.BestScore = bestScore
	return m, ext, stats, nil
}

// clearNonSentinelWordRows zeroes every word row except the trailing
// three sentinels (UNKNOWN/NIL/ROOT) ahead of loading target-language
// embeddings over them, so a target word absent from the new embedding
// file doesn't silently keep its stale source-language vector.
func clearNonSentinelWordRows(m *classifier.Model, d *dict.Dictionaries) {
	n := d.WordsTable().Len()
	_, cols := m.Eb.Dims()
	for row := 0; row < n-3; row++ {
		for j := 0; j < cols; j++ {
			m.Eb.Set(row, j, 0)
		}
	}
}
