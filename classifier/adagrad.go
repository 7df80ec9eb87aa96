package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Optimizer is an AdaGrad optimizer: one running sum-of-squares
// accumulator per parameter, shaped identically to it, as spec.md
// §4.4 specifies. LearningRate is η, Epsilon is ε.
type Optimizer struct {
	LearningRate float64
	Epsilon      float64
	L2           float64

	accum *Gradients

	// FixWordEmbeddings freezes Eb's leading (n_words-3) rows — only
	// the three sentinel rows stay trainable — per spec.md §4.4's
	// fix_word_embeddings flag.
	FixWordEmbeddings bool
	numWords          int
}

// NewOptimizer creates an Optimizer with zeroed accumulators shaped
// after m.
func NewOptimizer(m *Model, lr, epsilon, l2 float64) *Optimizer {
	return &Optimizer{
		LearningRate:      lr,
		Epsilon:           epsilon,
		L2:                l2,
		accum:             NewGradients(m),
		FixWordEmbeddings: m.FixWordEmbeddings,
		numWords:          m.Dict.WordsTable().Len(),
	}
}

// Step adds L2 regularization into g, accumulates g² into the running
// AdaGrad accumulators, then updates m's parameters in place:
// θ ← θ − η·g/√(accum+ε). minibatchSize scales the gradient average.
func (o *Optimizer) Step(m *Model, g *Gradients, minibatchSize int) {
	scale := 1.0 / float64(minibatchSize)
	o.addL2(g, m, scale)

	o.updateDense(m.Eb, g.Eb, o.accum.Eb, wordEmbeddingFilter(o.FixWordEmbeddings, o.numWords))
	o.updateDense(m.Ed, g.Ed, o.accum.Ed, nil)
	o.updateDense(m.Ev, g.Ev, o.accum.Ev, nil)
	o.updateDense(m.Ec, g.Ec, o.accum.Ec, nil)
	o.updateDense(m.El, g.El, o.accum.El, nil)
	o.updateDense(m.W1, g.W1, o.accum.W1, nil)
	o.updateDense(m.W2, g.W2, o.accum.W2, nil)
	o.updateVector(m.B1, g.B1, o.accum.B1)
}

// wordEmbeddingFilter returns a row predicate that skips the leading
// (numWords-3) word rows when fixWordEmbeddings is set, leaving only
// the three trailing sentinel rows (UNKNOWN/NIL/ROOT) trainable.
func wordEmbeddingFilter(fixWordEmbeddings bool, numWords int) func(row int) bool {
	if !fixWordEmbeddings {
		return nil
	}
	frozenRows := numWords - 3
	return func(row int) bool { return row < frozenRows }
}

func (o *Optimizer) updateDense(param, grad, accum *mat.Dense, skipRow func(row int) bool) {
	r, c := param.Dims()
	for i := 0; i < r; i++ {
		if skipRow != nil && skipRow(i) {
			continue
		}
		for j := 0; j < c; j++ {
			gij := grad.At(i, j)
			if gij == 0 {
				continue
			}
			a := accum.At(i, j) + gij*gij
			accum.Set(i, j, a)
			param.Set(i, j, param.At(i, j)-o.LearningRate*gij/math.Sqrt(a+o.Epsilon))
		}
	}
}

func (o *Optimizer) updateVector(param, grad, accum []float64) {
	for i, gi := range grad {
		if gi == 0 {
			continue
		}
		a := accum[i] + gi*gi
		accum[i] = a
		param[i] -= o.LearningRate * gi / math.Sqrt(a+o.Epsilon)
	}
}

// addL2 adds λ·θ into g for every trainable matrix, scaled the same
// way as the minibatch-averaged sample gradients (½λ‖θ‖² regularizer).
func (o *Optimizer) addL2(g *Gradients, m *Model, scale float64) {
	addL2Dense := func(grad, param *mat.Dense) {
		r, c := param.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				grad.Set(i, j, grad.At(i, j)*scale+o.L2*param.At(i, j))
			}
		}
	}
	addL2Dense(g.Eb, m.Eb)
	addL2Dense(g.Ed, m.Ed)
	addL2Dense(g.Ev, m.Ev)
	addL2Dense(g.Ec, m.Ec)
	addL2Dense(g.El, m.El)
	addL2Dense(g.W1, m.W1)
	addL2Dense(g.W2, m.W2)
	for i := range g.B1 {
		g.B1[i] = g.B1[i]*scale + o.L2*m.B1[i]
	}
}
