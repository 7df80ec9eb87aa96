// Package classifier implements the neural scoring model: embedding
// lookup for every feature slot, one cubic-activation hidden layer,
// action scores, AdaGrad training with a masked softmax objective, and
// the dense precompute cache that makes greedy inference tractable.
// The numeric core is built on gonum's mat.Dense, the way the pack's
// own hand-rolled learning models (CompCogNeuro/sims, o9nn's echo.go)
// lean on gonum instead of reimplementing matrix arithmetic by hand.
package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/transition"
)

// Dims holds the five configurable embedding widths spec.md §6 names
// embedding_size / distance_embedding_size / valency_embedding_size /
// cluster_embedding_size / length_embedding_size.
type Dims struct {
	Embed    int // words ∪ POS ∪ labels share this width (Eb)
	Distance int
	Valency  int
	Cluster  int
	Length   int
}

func (d Dims) forGroup(g dict.Group) int {
	switch g {
	case dict.Words, dict.POS, dict.Labels:
		return d.Embed
	case dict.Distances:
		return d.Distance
	case dict.Valencies:
		return d.Valency
	case dict.Clusters:
		return d.Cluster
	case dict.Lengths:
		return d.Length
	default:
		return 0
	}
}

// Model is the full scoring network: five group embedding tables, one
// hidden layer, one output layer, and the slot layout needed to route
// a feature.Extractor's flat id vector into the right embedding rows.
type Model struct {
	Dict    *dict.Dictionaries
	Flags   feature.Flags
	Dims    Dims
	Actions []transition.Action

	// SlotGroups[i] names which embedding table feature slot i indexes
	// into; it must stay in lockstep with feature.Flags.SlotGroups(),
	// which Extract's output is built to match position-for-position.
	SlotGroups []dict.Group

	// SlotOffsets[i] is slot i's starting column in the concatenated
	// input vector x and in W1, precomputed once so forward passes and
	// the precompute cache agree on layout without recomputing it.
	SlotOffsets []int

	HiddenSize int

	Eb *mat.Dense // (words+POS+labels rows) x Dims.Embed
	Ed *mat.Dense // distances rows x Dims.Distance
	Ev *mat.Dense // valencies rows x Dims.Valency
	Ec *mat.Dense // clusters rows x Dims.Cluster
	El *mat.Dense // lengths rows x Dims.Length

	W1 *mat.Dense // HiddenSize x InputDim
	B1 []float64  // HiddenSize
	W2 *mat.Dense // len(Actions) x HiddenSize

	// FixWordEmbeddings freezes all but the trailing three sentinel
	// rows of Eb's word block (spec.md §4.4's fix_word_embeddings).
	FixWordEmbeddings bool

	Precompute *Cache
}

// InputDim returns T·d generalized to per-group widths: the sum, over
// every feature slot, of that slot's embedding width.
func (m *Model) InputDim() int {
	n := 0
	for _, g := range m.SlotGroups {
		n += m.Dims.forGroup(g)
	}
	return n
}

// embeddingFor returns the embedding matrix and local row for a slot's
// global feature id.
func (m *Model) embeddingFor(group dict.Group, globalID int32) (*mat.Dense, int) {
	switch group {
	case dict.Words, dict.POS, dict.Labels:
		return m.Eb, int(globalID)
	case dict.Distances:
		return m.Ed, int(globalID - m.Dict.GroupOffset(dict.Distances))
	case dict.Valencies:
		return m.Ev, int(globalID - m.Dict.GroupOffset(dict.Valencies))
	case dict.Clusters:
		return m.Ec, int(globalID - m.Dict.GroupOffset(dict.Clusters))
	default:
		return m.El, int(globalID - m.Dict.GroupOffset(dict.Lengths))
	}
}

// NewModel allocates a Model with zero-valued (to be initialized)
// parameter matrices sized from d, flags and dims.
func NewModel(d *dict.Dictionaries, flags feature.Flags, dims Dims, actions []transition.Action, hidden int) *Model {
	m := &Model{
		Dict:       d,
		Flags:      flags,
		Dims:       dims,
		Actions:    actions,
		SlotGroups: flags.SlotGroups(),
		HiddenSize: hidden,
	}
	m.SlotOffsets = make([]int, len(m.SlotGroups))
	offset := 0
	for i, g := range m.SlotGroups {
		m.SlotOffsets[i] = offset
		offset += dims.forGroup(g)
	}
	basicRows := d.WordsTable().Len() + d.POSTable().Len() + d.LabelsTable().Len()
	m.Eb = mat.NewDense(basicRows, dims.Embed, nil)
	m.Ed = mat.NewDense(d.DistancesTable().Len(), dims.Distance, nil)
	m.Ev = mat.NewDense(d.ValenciesTable().Len(), dims.Valency, nil)
	m.Ec = mat.NewDense(d.ClustersTable().Len(), dims.Cluster, nil)
	m.El = mat.NewDense(d.LengthsTable().Len(), dims.Length, nil)

	in := m.InputDim()
	m.W1 = mat.NewDense(hidden, in, nil)
	m.B1 = make([]float64, hidden)
	m.W2 = mat.NewDense(len(actions), hidden, nil)
	return m
}

// Initialize fills the embedding tables with a uniform random value in
// [-initRange, initRange], per spec.md §6's init_range key, but derives
// W1/b1's and W2's own ranges from their shapes via Xavier
// initialization (sqrt(6/(fan_in+fan_out))) instead of reusing
// initRange for them — the original's DependencyParser::Model
// constructor (see original source) sizes W1_init_range off W1's own
// (rows, cols) and W2_init_range off W2's own (rows, cols), applying
// init_range only to the embedding tables.
func (m *Model) Initialize(initRange float64, rnd func() float64) {
	randomize := func(dst *mat.Dense, scale float64) {
		r, c := dst.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				dst.Set(i, j, (rnd()*2-1)*scale)
			}
		}
	}
	randomize(m.Eb, initRange)
	randomize(m.Ed, initRange)
	randomize(m.Ev, initRange)
	randomize(m.Ec, initRange)
	randomize(m.El, initRange)

	w1Range := xavierRange(m.W1)
	randomize(m.W1, w1Range)
	for i := range m.B1 {
		m.B1[i] = (rnd()*2 - 1) * w1Range
	}

	randomize(m.W2, xavierRange(m.W2))
}

// xavierRange returns sqrt(6/(fan_in+fan_out)) for a (rows, cols)
// matrix, the Xavier-uniform range the original model computes per
// weight matrix from its own shape rather than from a single
// configured init_range.
func xavierRange(m *mat.Dense) float64 {
	r, c := m.Dims()
	return math.Sqrt(6.0 / float64(r+c))
}
