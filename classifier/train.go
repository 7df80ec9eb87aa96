package classifier

import (
	"sync"

	"github.com/nihei9/depar/dataset"
)

// MinibatchResult summarizes one AdaGrad step over a minibatch:
// average loss and the fraction of samples whose argmax over
// applicable actions matched the gold action (spec.md §4.4).
type MinibatchResult struct {
	AvgLoss  float64
	Accuracy float64
}

// TrainMinibatch partitions samples across numWorkers goroutines, each
// with a private Gradients accumulator (no mutex in the per-sample
// loop), sums the partial gradients at the sync.WaitGroup barrier, and
// takes one AdaGrad step — spec.md §5's concurrency model verbatim.
func (m *Model) TrainMinibatch(samples []dataset.Sample, opt *Optimizer, numWorkers int) MinibatchResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(samples) {
		numWorkers = len(samples)
	}

	partials := make([]*Gradients, numWorkers)
	losses := make([]float64, numWorkers)
	corrects := make([]int, numWorkers)
	counts := make([]int, numWorkers)

	var wg sync.WaitGroup
	chunk := (len(samples) + numWorkers - 1) / numWorkers
	for w := 0; w < numWorkers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(samples) {
			partials[w] = NewGradients(m)
			continue
		}
		if end > len(samples) {
			end = len(samples)
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			g := NewGradients(m)
			var loss float64
			var correct int
			for _, s := range samples[start:end] {
				r := m.Backprop(s.Features, s.Labels, g)
				loss += r.Loss
				if r.Correct {
					correct++
				}
			}
			partials[w] = g
			losses[w] = loss
			corrects[w] = correct
			counts[w] = end - start
		}(w, start, end)
	}
	wg.Wait()

	total := NewGradients(m)
	var totalLoss float64
	var totalCorrect, totalCount int
	for w := 0; w < numWorkers; w++ {
		total.Add(partials[w])
		totalLoss += losses[w]
		totalCorrect += corrects[w]
		totalCount += counts[w]
	}

	opt.Step(m, total, len(samples))

	if totalCount == 0 {
		return MinibatchResult{}
	}
	return MinibatchResult{
		AvgLoss:  totalLoss / float64(totalCount),
		Accuracy: float64(totalCorrect) / float64(totalCount),
	}
}
