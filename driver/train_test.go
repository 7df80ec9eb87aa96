package driver

import (
	"math/rand"
	"testing"

	"github.com/nihei9/depar/engconfig"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

func testTrainConfig() *engconfig.Config {
	return &engconfig.Config{
		Labeled:      true,
		Oracle:       "arceager",
		UsePOS:       true,
		EmbeddingSize: 4,
		DistanceEmbeddingSize: 2,
		ValencyEmbeddingSize:  2,
		ClusterEmbeddingSize:  2,
		LengthEmbeddingSize:   2,
		HiddenSize:            8,
		WordCutOff:            1,
		InitRange:             0.1,
		MaxIter:               3,
		TrainingThreads:       1,
		RootLabel:             "root",
		LearningRate:          0.1,
		Epsilon:               1e-6,
	}
}

func TestTrain_SameSeedProducesIdenticalParameters(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()
	sents := []*sentence.Sentence{sent}
	golds := []*sentence.Graph{gold}

	run := func() *[]float64 {
		opts := TrainOptions{
			Cfg:           testTrainConfig(),
			Sys:           sys,
			Rand:          rand.New(rand.NewSource(99)),
			MinibatchSize: 2,
		}
		m, _, _, err := Train(opts, sents, golds, nil, nil)
		if err != nil {
			t.Fatalf("Train failed: %v", err)
		}
		r, c := m.W1.Dims()
		flat := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				flat = append(flat, m.W1.At(i, j))
			}
		}
		return &flat
	}

	a := run()
	b := run()

	if len(*a) != len(*b) {
		t.Fatalf("W1 shape mismatch across runs: %d vs %d", len(*a), len(*b))
	}
	for i := range *a {
		if (*a)[i] != (*b)[i] {
			t.Fatalf("W1[%d] differs across identically-seeded runs: %g vs %g", i, (*a)[i], (*b)[i])
		}
	}
}

func TestTrain_ReportsNoDivergenceOnAReachableCorpus(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()

	opts := TrainOptions{
		Cfg:           testTrainConfig(),
		Sys:           sys,
		Rand:          rand.New(rand.NewSource(1)),
		MinibatchSize: 2,
	}
	_, _, stats, err := Train(opts, []*sentence.Sentence{sent}, []*sentence.Graph{gold}, nil, nil)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if stats.OracleDivergence != 0 || stats.UnreachableGraph != 0 {
		t.Fatalf("expected a fully reachable corpus, got stats=%+v", stats)
	}
	if stats.Iterations != opts.Cfg.MaxIter {
		t.Fatalf("got Iterations=%d, want %d", stats.Iterations, opts.Cfg.MaxIter)
	}
}
