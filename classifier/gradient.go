package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nihei9/depar/dict"
)

// Gradients holds one set of partial derivatives, shaped identically
// to the Model's parameters, so minibatch workers can each own a
// private Gradients and have the driver goroutine sum them at the
// barrier (spec.md §5's thread-local accumulator policy).
type Gradients struct {
	Eb, Ed, Ev, Ec, El *mat.Dense
	W1                 *mat.Dense
	B1                 []float64
	W2                 *mat.Dense
}

// NewGradients allocates a zero Gradients shaped after m.
func NewGradients(m *Model) *Gradients {
	zeroLike := func(d *mat.Dense) *mat.Dense {
		r, c := d.Dims()
		return mat.NewDense(r, c, nil)
	}
	return &Gradients{
		Eb: zeroLike(m.Eb),
		Ed: zeroLike(m.Ed),
		Ev: zeroLike(m.Ev),
		Ec: zeroLike(m.Ec),
		El: zeroLike(m.El),
		W1: zeroLike(m.W1),
		B1: make([]float64, len(m.B1)),
		W2: zeroLike(m.W2),
	}
}

// Add accumulates other into g in place.
func (g *Gradients) Add(other *Gradients) {
	addDense(g.Eb, other.Eb)
	addDense(g.Ed, other.Ed)
	addDense(g.Ev, other.Ev)
	addDense(g.Ec, other.Ec)
	addDense(g.El, other.El)
	addDense(g.W1, other.W1)
	addDense(g.W2, other.W2)
	for i := range g.B1 {
		g.B1[i] += other.B1[i]
	}
}

func addDense(dst, src *mat.Dense) {
	dst.Add(dst, src)
}

// SampleResult is the outcome of scoring and backpropagating through
// one labeled sample: its loss and whether the model's current argmax
// over applicable actions agrees with the gold action (spec.md §4.4's
// "accuracy ... fraction of samples whose argmax ... matches the
// gold").
type SampleResult struct {
	Loss    float64
	Correct bool
}

// Backprop scores one sample, accumulates its gradient contribution
// into g, and returns its loss/correctness. L2 regularization (½λ‖θ‖²
// over every trainable matrix) is added once per minibatch by
// Optimizer.Step (see addL2), not per sample, to avoid redundant work.
func (m *Model) Backprop(features []int32, labels []int8, g *Gradients) SampleResult {
	fwd := m.score(features)

	var applicable []int
	gold := -1
	for i, l := range labels {
		if l == -1 {
			continue
		}
		applicable = append(applicable, i)
		if l == 1 {
			gold = i
		}
	}

	maxLogit := fwd.Logits[applicable[0]]
	for _, i := range applicable {
		if fwd.Logits[i] > maxLogit {
			maxLogit = fwd.Logits[i]
		}
	}
	var sumExp float64
	probs := make(map[int]float64, len(applicable))
	for _, i := range applicable {
		e := math.Exp(fwd.Logits[i] - maxLogit)
		probs[i] = e
		sumExp += e
	}
	for i := range probs {
		probs[i] /= sumExp
	}

	argmax := applicable[0]
	for _, i := range applicable {
		if fwd.Logits[i] > fwd.Logits[argmax] {
			argmax = i
		}
	}

	dLogits := make([]float64, len(fwd.Logits))
	for _, i := range applicable {
		target := 0.0
		if i == gold {
			target = 1.0
		}
		dLogits[i] = probs[i] - target
	}

	dh := make([]float64, m.HiddenSize)
	for a, dl := range dLogits {
		if dl == 0 {
			continue
		}
		for k := 0; k < m.HiddenSize; k++ {
			g.W2.Set(a, k, g.W2.At(a, k)+dl*fwd.Hidden[k])
			dh[k] += dl * m.W2.At(a, k)
		}
	}

	dz := make([]float64, m.HiddenSize)
	for k, zk := range fwd.PreAct {
		dz[k] = dh[k] * 3 * zk * zk
	}
	for k := range g.B1 {
		g.B1[k] += dz[k]
	}

	for slot, group := range m.SlotGroups {
		offset := m.SlotOffsets[slot]
		width := m.Dims.forGroup(group)
		xSlice := fwd.Input[offset : offset+width]
		for i := 0; i < m.HiddenSize; i++ {
			dzi := dz[i]
			if dzi == 0 {
				continue
			}
			for j := 0; j < width; j++ {
				g.W1.Set(i, offset+j, g.W1.At(i, offset+j)+dzi*xSlice[j])
			}
		}

		dEmbed := make([]float64, width)
		for j := 0; j < width; j++ {
			var sum float64
			for i := 0; i < m.HiddenSize; i++ {
				sum += dz[i] * m.W1.At(i, offset+j)
			}
			dEmbed[j] = sum
		}
		gTbl, row := m.embeddingGradFor(g, group, features[slot])
		for j := 0; j < width; j++ {
			gTbl.Set(row, j, gTbl.At(row, j)+dEmbed[j])
		}
	}

	loss := -math.Log(probs[gold])
	return SampleResult{Loss: loss, Correct: argmax == gold}
}

// embeddingGradFor is embeddingFor's counterpart over a Gradients
// instead of the Model's own embeddings.
func (m *Model) embeddingGradFor(g *Gradients, group dict.Group, globalID int32) (*mat.Dense, int) {
	switch group {
	case dict.Words, dict.POS, dict.Labels:
		return g.Eb, int(globalID)
	case dict.Distances:
		return g.Ed, int(globalID - m.Dict.GroupOffset(dict.Distances))
	case dict.Valencies:
		return g.Ev, int(globalID - m.Dict.GroupOffset(dict.Valencies))
	case dict.Clusters:
		return g.Ec, int(globalID - m.Dict.GroupOffset(dict.Clusters))
	default:
		return g.El, int(globalID - m.Dict.GroupOffset(dict.Lengths))
	}
}
