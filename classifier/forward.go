package classifier

import "gonum.org/v1/gonum/mat"

// Forward is the result of scoring one sample: the concatenated
// embedding input, the pre-activation and activated hidden vectors
// (both retained for backprop), and the raw action logits.
type Forward struct {
	Input  []float64 // x, length InputDim()
	PreAct []float64 // z = W1 x + b1, length HiddenSize
	Hidden []float64 // h = z³, length HiddenSize
	Logits []float64 // W2 h, length len(Actions)
}

// Score returns the raw action logits for one feature vector, for
// callers (driver.Predict and its headless-repair pass) that only need
// the scores and not the retained activations Backprop requires.
func (m *Model) Score(features []int32) []float64 {
	return m.score(features).Logits
}

// score computes h = (W1 x + b1)³ then logits = W2 h, consulting the
// precompute cache for any (slot, id) pair it already holds a
// contribution for, per spec.md §4.4.
func (m *Model) score(features []int32) *Forward {
	x := m.embed(features)
	z := make([]float64, m.HiddenSize)
	copy(z, m.B1)

	cached := make([]bool, len(features))
	if m.Precompute != nil {
		for slot, id := range features {
			if v, ok := m.Precompute.lookup(slot, id); ok {
				addInPlace(z, v)
				cached[slot] = true
			}
		}
	}

	// Accumulate the contribution of every slot not already served by
	// the precompute cache, slicing W1's columns for that slot's input
	// span rather than materializing a full x vector product.
	for slot, group := range m.SlotGroups {
		if cached[slot] {
			continue
		}
		offset := m.SlotOffsets[slot]
		width := m.Dims.forGroup(group)
		addW1Slice(z, m.W1, offset, width, x[offset:offset+width])
	}

	h := make([]float64, len(z))
	for i, v := range z {
		h[i] = v * v * v
	}

	logits := make([]float64, len(m.Actions))
	for a := 0; a < len(m.Actions); a++ {
		row := mat.Row(nil, a, m.W2)
		var sum float64
		for k, v := range row {
			sum += v * h[k]
		}
		logits[a] = sum
	}

	return &Forward{Input: x, PreAct: z, Hidden: h, Logits: logits}
}

// embed concatenates the embedding row for every feature slot into a
// single input vector of length InputDim().
func (m *Model) embed(features []int32) []float64 {
	x := make([]float64, m.InputDim())
	for slot, group := range m.SlotGroups {
		offset := m.SlotOffsets[slot]
		width := m.Dims.forGroup(group)
		tbl, row := m.embeddingFor(group, features[slot])
		for j := 0; j < width; j++ {
			x[offset+j] = tbl.At(row, j)
		}
	}
	return x
}

// addW1Slice adds W1[:, offset:offset+width] · xSlice into z.
func addW1Slice(z []float64, w1 *mat.Dense, offset, width int, xSlice []float64) {
	for i := range z {
		var sum float64
		for j := 0; j < width; j++ {
			sum += w1.At(i, offset+j) * xSlice[j]
		}
		z[i] += sum
	}
}

func addInPlace(dst []float64, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}
