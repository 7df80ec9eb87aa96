package driver

import (
	"math/rand"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/dataset"
	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// buildTestSentence returns a tiny three-word sentence ("the cat sat")
// alongside a gold graph where 2 (cat) heads both 1 (the, det) and is
// itself headed by 3 (sat, nsubj) which roots out, the same shape
// classifier's own tests use for a minimal but non-trivial parse.
func buildTestSentence() (*sentence.Sentence, *sentence.Graph) {
	sent := sentence.New([]sentence.Token{
		{Form: "the", POS: "DET"},
		{Form: "cat", POS: "NOUN"},
		{Form: "sat", POS: "VERB"},
	})
	gold := sentence.NewGraph(3)
	gold.AddArc(2, 1, "det")
	gold.AddArc(3, 2, "nsubj")
	gold.AddArc(sentence.Root, 3, "root")
	return sent, gold
}

// buildTestDictAndExtractor builds the dictionaries/extractor pair
// reachable from a single (sent, gold) pair, the way Train's
// buildDictionaries does over a whole corpus.
func buildTestDictAndExtractor(sys transition.System, sent *sentence.Sentence, gold *sentence.Graph, rootLabel string) (*dict.Dictionaries, *feature.Extractor) {
	b := dict.NewBuilder(1, rootLabel, false)
	for i := 1; i <= sent.Len(); i++ {
		tok := sent.At(i)
		b.ObserveToken(tok.Form, tok.POS, tok.Cluster)
	}
	for i := 1; i <= gold.Len(); i++ {
		for _, arc := range gold.Heads(i) {
			b.ObserveLabel(arc.Label)
		}
	}
	dataset.ObserveDynamicFeatures(sys, sent, gold, b)
	d := b.Build()
	ext := feature.NewExtractor(feature.Flags{UsePOS: true}, d)
	return d, ext
}

// buildTestModel wires a tiny randomly-initialized model over d/actions,
// small enough to run forward passes in a test without real training.
func buildTestModel(d *dict.Dictionaries, actions []transition.Action, flags feature.Flags, seed int64) *classifier.Model {
	m := classifier.NewModel(d, flags, classifier.Dims{Embed: 4, Distance: 2, Valency: 2, Cluster: 2, Length: 2}, actions, 8)
	rnd := rand.New(rand.NewSource(seed))
	m.Initialize(0.1, rnd.Float64)
	return m
}
