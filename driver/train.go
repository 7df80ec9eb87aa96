package driver

import (
	"bytes"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/dataset"
	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/engconfig"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/perr"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// TrainOptions collects the knobs Train needs beyond the training/dev
// data itself.
type TrainOptions struct {
	Cfg  *engconfig.Config
	Sys  transition.System
	Rand *rand.Rand

	// MinibatchSize is the number of samples per AdaGrad step; deriving
	// it from configuration is left to the caller since spec.md §6's
	// configuration surface does not name a key for it.
	MinibatchSize int

	// Ledger, if non-nil, records every evaluation cycle and checkpoint.
	Ledger *Ledger

	// CheckpointDir, if non-empty, is where periodic checkpoints (every
	// 10*EvalPerIter iterations, per spec.md §4.5) are written.
	CheckpointDir string
}

// Train runs depar's full training loop: build dictionaries, allocate
// and initialize the classifier, optionally seed it with pretrained
// word embeddings, then iterate AdaGrad steps over training minibatches,
// periodically re-precomputing, decoding the dev set and retaining the
// best model by labeled-F, with periodic checkpoints. It finishes by
// averaging the parameters accumulated across iterations ("AdaGrad
// finalize", spec.md §4.5).
func Train(opts TrainOptions, trainSents []*sentence.Sentence, trainGolds []*sentence.Graph, devSents []*sentence.Sentence, devGolds []*sentence.Graph) (*classifier.Model, *feature.Extractor, TrainStats, error) {
	cfg := opts.Cfg
	d := buildDictionaries(cfg, opts.Sys, trainSents, trainGolds)
	labels := actionLabels(d)
	actions := opts.Sys.Actions(labels)

	flags := feature.Flags{
		UsePOS:      cfg.UsePOS,
		UseDistance: cfg.UseDistance,
		UseValency:  cfg.UseValency,
		UseCluster:  cfg.UseCluster,
		UseLength:   cfg.UseLength,
	}
	dims := classifier.Dims{
		Embed:    cfg.EmbeddingSize,
		Distance: cfg.DistanceEmbeddingSize,
		Valency:  cfg.ValencyEmbeddingSize,
		Cluster:  cfg.ClusterEmbeddingSize,
		Length:   cfg.LengthEmbeddingSize,
	}

	m := classifier.NewModel(d, flags, dims, actions, cfg.HiddenSize)
	m.FixWordEmbeddings = cfg.FixWordEmbeddings
	m.Initialize(cfg.InitRange, opts.Rand.Float64)

	if cfg.WordEmbeddingsPath != "" {
		f, err := os.Open(cfg.WordEmbeddingsPath)
		if err != nil {
			return nil, nil, TrainStats{}, perr.Wrap(perr.IOFailure, cfg.WordEmbeddingsPath, "cannot open pretrained embeddings", err)
		}
		_, err = classifier.LoadEmbeddings(f, m)
		f.Close()
		if err != nil {
			return nil, nil, TrainStats{}, err
		}
	}

	ext := feature.NewExtractor(flags, d)
	ds := dataset.NewBuilder(opts.Sys, labels, ext).Build(trainSents, trainGolds)
	opt := classifier.NewOptimizer(m, cfg.LearningRate, cfg.Epsilon, cfg.L2)

	if cfg.Debug && len(ds.Samples) > 0 {
		s := ds.Samples[0]
		if err := m.CheckGradient(s.Features, s.Labels, classifier.DefaultGradCheckOptions()); err != nil {
			return nil, nil, TrainStats{}, err
		}
	}

	stats := TrainStats{
		OracleDivergence: countDivergence(opts.Sys, trainSents, trainGolds),
		UnreachableGraph: countUnreachable(opts.Sys, trainGolds),
	}

	acc := newParamAccumulator(m)
	var bestSnapshot []byte
	bestIteration := 0
	var bestScore transition.Score

	minibatch := opts.MinibatchSize
	if minibatch < 1 {
		minibatch = 1
	}

	freq := classifier.NewFreqCounter()
	for _, s := range ds.Samples {
		freq.Observe(s.Features)
	}

	for iter := 1; iter <= cfg.MaxIter; iter++ {
		if cfg.ClearGradientPerIter > 0 && iter%cfg.ClearGradientPerIter == 0 {
			opt = classifier.NewOptimizer(m, cfg.LearningRate, cfg.Epsilon, cfg.L2)
		}

		batch := selectMinibatch(ds.Samples, minibatch, opts.Rand)
		m.TrainMinibatch(batch, opt, cfg.TrainingThreads)
		acc.observe(m)
		stats.Iterations = iter

		if cfg.EvalPerIter > 0 && iter%cfg.EvalPerIter == 0 {
			m.PreCompute(freq, cfg.NumPreComputed)
			score := evaluateDev(opts.Sys, ext, m, devSents, devGolds, cfg.RootLabel)
			if opts.Ledger != nil {
				opts.Ledger.RecordEval(iter, score.LabeledF, score.UnlabeledF)
			}
			if bestSnapshot == nil || score.LabeledF > bestScore.LabeledF {
				bestScore = score
				bestIteration = iter
				bestSnapshot = snapshotModel(m, cfg)
			}
			if opts.CheckpointDir != "" && iter%(10*cfg.EvalPerIter) == 0 {
				path := checkpointPath(opts.CheckpointDir, iter)
				if err := os.WriteFile(path, snapshotModel(m, cfg), 0o644); err == nil && opts.Ledger != nil {
					opts.Ledger.RecordCheckpoint(iter, path)
				}
			}
		}
	}

	acc.finalize(m)

	stats.BestIteration = bestIteration
	stats.BestScore = bestScore

	if bestSnapshot != nil {
		best, err := classifier.LoadModel(bytes.NewReader(bestSnapshot), d, actions)
		if err == nil {
			return best, ext, stats, nil
		}
	}
	return m, ext, stats, nil
}

// BuildDictionaries exposes buildDictionaries to callers outside this
// package (the depar CLI rebuilds the same dictionaries a model was
// trained with in order to load it back, since the model file itself
// carries only per-group token counts, not the tables).
func BuildDictionaries(cfg *engconfig.Config, sys transition.System, sents []*sentence.Sentence, golds []*sentence.Graph) *dict.Dictionaries {
	return buildDictionaries(cfg, sys, sents, golds)
}

// ActionLabels exposes actionLabels to callers outside this package.
func ActionLabels(d *dict.Dictionaries) []string {
	return actionLabels(d)
}

// BuildHeader exposes the classifier.Header construction snapshotModel
// uses internally, so the CLI can call classifier.SaveModel directly
// without duplicating the per-group token-count bookkeeping.
func BuildHeader(m *classifier.Model, cfg *engconfig.Config) classifier.Header {
	return classifier.Header{
		Labeled:    cfg.Labeled,
		Oracle:     cfg.Oracle,
		Flags:      m.Flags,
		Dims:       m.Dims,
		HiddenSize: m.HiddenSize,
		NumBasic:   m.Dict.WordsTable().Len() + m.Dict.POSTable().Len() + m.Dict.LabelsTable().Len(),
		NumDist:    m.Dict.DistancesTable().Len(),
		NumValency: m.Dict.ValenciesTable().Len(),
		NumCluster: m.Dict.ClustersTable().Len(),
		NumLength:  m.Dict.LengthsTable().Len(),
		NumPreComp: m.Precompute.Len(),
	}
}

// buildDictionaries scans every training token/label and simulates the
// oracle over every training sentence to build the dynamic-feature
// tables, per spec.md §4.6.
func buildDictionaries(cfg *engconfig.Config, sys transition.System, sents []*sentence.Sentence, golds []*sentence.Graph) *dict.Dictionaries {
	b := dict.NewBuilder(cfg.WordCutOff, cfg.RootLabel, cfg.Delexicalized)
	for _, sent := range sents {
		for i := 1; i <= sent.Len(); i++ {
			tok := sent.At(i)
			b.ObserveToken(tok.Form, tok.POS, tok.Cluster)
		}
	}
	for _, gold := range golds {
		for i := 1; i <= gold.Len(); i++ {
			for _, arc := range gold.Heads(i) {
				b.ObserveLabel(arc.Label)
			}
		}
	}
	for i, sent := range sents {
		dataset.ObserveDynamicFeatures(sys, sent, golds[i], b)
	}
	return b.Build()
}

// actionLabels returns every label a LeftArc/RightArc action can carry:
// the full labels table except its NIL sentinel row.
func actionLabels(d *dict.Dictionaries) []string {
	t := d.LabelsTable()
	nilID := t.NilID()
	out := make([]string, 0, t.Len())
	for id := int32(0); id < int32(t.Len()); id++ {
		if id == nilID {
			continue
		}
		if text, ok := t.Text(id); ok {
			out = append(out, text)
		}
	}
	return out
}

func countDivergence(sys transition.System, sents []*sentence.Sentence, golds []*sentence.Graph) int {
	_, stats := ExtractTransitionSequence(sys, sents, golds)
	return stats.OracleDivergence
}

func countUnreachable(sys transition.System, golds []*sentence.Graph) int {
	n := 0
	for _, g := range golds {
		if !sys.CanProcess(g) {
			n++
		}
	}
	return n
}

// selectMinibatch draws size samples uniformly at random, with
// replacement, from samples,
// advancing rnd deterministically so the same seed reproduces the same
// sequence of minibatches (spec.md §8's determinism law).
func selectMinibatch(samples []dataset.Sample, size int, rnd *rand.Rand) []dataset.Sample {
	if len(samples) == 0 {
		return nil
	}
	out := make([]dataset.Sample, size)
	for i := range out {
		out[i] = samples[rnd.Intn(len(samples))]
	}
	return out
}

func evaluateDev(sys transition.System, ext *feature.Extractor, m *classifier.Model, sents []*sentence.Sentence, golds []*sentence.Graph, rootLabel string) transition.Score {
	predicted := make([]*sentence.Graph, len(sents))
	for i, s := range sents {
		predicted[i] = Predict(sys, ext, m, s, rootLabel)
	}
	return sys.Evaluate(predicted, golds)
}

func snapshotModel(m *classifier.Model, cfg *engconfig.Config) []byte {
	var buf bytes.Buffer
	h := classifier.Header{
		Labeled:    cfg.Labeled,
		Oracle:     cfg.Oracle,
		Flags:      m.Flags,
		Dims:       m.Dims,
		HiddenSize: m.HiddenSize,
		NumBasic:   m.Dict.WordsTable().Len() + m.Dict.POSTable().Len() + m.Dict.LabelsTable().Len(),
		NumDist:    m.Dict.DistancesTable().Len(),
		NumValency: m.Dict.ValenciesTable().Len(),
		NumCluster: m.Dict.ClustersTable().Len(),
		NumLength:  m.Dict.LengthsTable().Len(),
		NumPreComp: m.Precompute.Len(),
	}
	if err := classifier.SaveModel(&buf, m, h); err != nil {
		return nil
	}
	return buf.Bytes()
}

// paramAccumulator sums a model's trainable parameters across training
// iterations so Train can finalize by averaging them (spec.md §4.5's
// "AdaGrad finalize"), reusing classifier.Gradients purely as a
// same-shaped accumulator.
type paramAccumulator struct {
	sum   *classifier.Gradients
	count int
}

func newParamAccumulator(m *classifier.Model) *paramAccumulator {
	return &paramAccumulator{sum: classifier.NewGradients(m)}
}

func (a *paramAccumulator) observe(m *classifier.Model) {
	a.count++
	addDense(a.sum.Eb, m.Eb)
	addDense(a.sum.Ed, m.Ed)
	addDense(a.sum.Ev, m.Ev)
	addDense(a.sum.Ec, m.Ec)
	addDense(a.sum.El, m.El)
	addDense(a.sum.W1, m.W1)
	addDense(a.sum.W2, m.W2)
	for i := range a.sum.B1 {
		a.sum.B1[i] += m.B1[i]
	}
}

func (a *paramAccumulator) finalize(m *classifier.Model) {
	if a.count == 0 {
		return
	}
	scale := 1.0 / float64(a.count)
	m.Eb.Scale(scale, a.sum.Eb)
	m.Ed.Scale(scale, a.sum.Ed)
	m.Ev.Scale(scale, a.sum.Ev)
	m.Ec.Scale(scale, a.sum.Ec)
	m.El.Scale(scale, a.sum.El)
	m.W1.Scale(scale, a.sum.W1)
	m.W2.Scale(scale, a.sum.W2)
	for i := range m.B1 {
		m.B1[i] = a.sum.B1[i] * scale
	}
}

func addDense(dst, src *mat.Dense) {
	dst.Add(dst, src)
}
