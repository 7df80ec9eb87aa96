// Package dataset captures oracle-driven training samples: for every
// reachable step of a gold parse, the feature vector at that step
// paired with a mask-aware action label vector (spec.md §3's "Dataset
// sample"), plus the dynamic-feature observations a dict.Builder needs
// to size the distance/valency/length tables.
package dataset

import (
	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// Sample is one (features, action labels) training pair. Labels[i] ==
// +1 marks the oracle action, 0 an applicable-but-not-gold action, -1
// an inapplicable action excluded from the softmax and its gradient.
type Sample struct {
	Features []int32
	Labels   []int8
}

// Dataset is an ordered collection of samples plus the action
// alphabet they were labeled against.
type Dataset struct {
	Actions []transition.Action
	Samples []Sample
}

// Stats accumulates the data-level (never-fatal) conditions spec.md §7
// requires be counted rather than aborting a run.
type Stats struct {
	Sentences        int
	UnreachableGraph int
	OracleDivergence int
	SamplesGenerated int
}

// Builder drives sys's oracle over gold sentences, recording samples
// and dynamic-feature observations into a dict.Builder.
type Builder struct {
	Sys     transition.System
	Actions []transition.Action
	Ext     *feature.Extractor
	Stats   Stats
}

// NewBuilder creates a dataset Builder for one transition system's
// full action alphabet.
func NewBuilder(sys transition.System, labels []string, ext *feature.Extractor) *Builder {
	return &Builder{Sys: sys, Actions: sys.Actions(labels), Ext: ext}
}

// AddSentence walks sys's oracle over (sent, gold) to terminal,
// capturing one sample per step. Unreachable or mid-parse-divergent
// sentences contribute no samples and are counted in Stats, per
// spec.md §4.5/§7 ("unreachable sentences are skipped ... divergence
// is counted and the sentence skipped").
func (b *Builder) AddSentence(sent *sentence.Sentence, gold *sentence.Graph) []Sample {
	b.Stats.Sentences++
	if !b.Sys.CanProcess(gold) {
		b.Stats.UnreachableGraph++
		return nil
	}

	c := pstate.New(gold.Len())
	var samples []Sample
	for !b.Sys.IsTerminal(c) {
		oracleAction, ok := b.Sys.Oracle(c, gold)
		if !ok {
			b.Stats.OracleDivergence++
			return nil
		}
		samples = append(samples, Sample{
			Features: b.Ext.Extract(c, sent),
			Labels:   b.labelVector(c, oracleAction),
		})
		b.Sys.Apply(c, oracleAction)
	}
	b.Stats.SamplesGenerated += len(samples)
	return samples
}

// Build runs AddSentence over every (sentence, gold) pair and returns
// the accumulated Dataset.
func (b *Builder) Build(sents []*sentence.Sentence, golds []*sentence.Graph) *Dataset {
	ds := &Dataset{Actions: b.Actions}
	for i, sent := range sents {
		ds.Samples = append(ds.Samples, b.AddSentence(sent, golds[i])...)
	}
	return ds
}

func (b *Builder) labelVector(c *pstate.Configuration, oracleAction transition.Action) []int8 {
	labels := make([]int8, len(b.Actions))
	for i, a := range b.Actions {
		switch {
		case !b.Sys.CanApply(c, a):
			labels[i] = -1
		case a == oracleAction:
			labels[i] = 1
		default:
			labels[i] = 0
		}
	}
	return labels
}

// ObserveDynamicFeatures replays sys's oracle over (sent, gold),
// recording the distance/valency/pass-length values observed at every
// reachable step into a dict.Builder, per spec.md §4.6's "simulating
// the oracle" requirement. It shares AddSentence's reachability/
// divergence handling but does not itself produce samples (dictionary
// construction happens before any Extractor exists).
func ObserveDynamicFeatures(sys transition.System, sent *sentence.Sentence, gold *sentence.Graph, b *dict.Builder) {
	if !sys.CanProcess(gold) {
		return
	}
	c := pstate.New(gold.Len())
	for !sys.IsTerminal(c) {
		a, ok := sys.Oracle(c, gold)
		if !ok {
			return
		}
		s := c.Stack(0)
		b.ObserveDynamic(c.Distance(), c.LeftValency(s)+c.RightValency(s), c.PassSize())
		sys.Apply(c, a)
	}
}
