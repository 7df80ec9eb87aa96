// Package feature turns a parser Configuration into the fixed-length
// integer feature vector the classifier's embedding layer reads,
// following the slot order spec.md §4.3 fixes: five token-identity
// slots, sixteen dependency-context slots (eight each around Σ[0] and
// β[0]), then the optional distance/valency/length groups.
package feature

import (
	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
)

// Flags toggles each optional feature group, mirroring spec.md §6's
// use_postag/use_distance/use_valency/use_cluster/use_length keys
// (word identity is never optional).
type Flags struct {
	UsePOS      bool
	UseDistance bool
	UseValency  bool
	UseCluster  bool
	UseLength   bool
}

const (
	baseSlotCount    = 5  // Σ[1], Σ[0], β[0], β[1], Π[0]
	relatedSlotCount = 16 // 8 related tokens each around Σ[0] and β[0]
	valencySlotCount = 6  // Σ[0]: lval,rval,lhval,rhval; β[0]: lval,lhval
)

// fieldsPerBaseSlot returns how many scalar ids one base slot
// contributes: word + (POS if enabled) + (cluster if enabled).
func (f Flags) fieldsPerBaseSlot() int {
	n := 1
	if f.UsePOS {
		n++
	}
	if f.UseCluster {
		n++
	}
	return n
}

// fieldsPerRelatedSlot additionally carries the arc label to the
// slot's governor, per spec.md §4.3.
func (f Flags) fieldsPerRelatedSlot() int {
	return f.fieldsPerBaseSlot() + 1
}

// NumTokens returns T, the total feature-vector length these flags
// produce — invariant 5 of spec.md §8 is exactly Extract's output
// length matching this value.
func (f Flags) NumTokens() int {
	n := baseSlotCount*f.fieldsPerBaseSlot() + relatedSlotCount*f.fieldsPerRelatedSlot()
	if f.UseDistance {
		n++
	}
	if f.UseValency {
		n += valencySlotCount
	}
	if f.UseLength {
		n++
	}
	return n
}

// SlotGroups returns, for every position Extract fills in, which
// dict.Group that position's id was drawn from. It must stay in
// lockstep with Extract's own field order (appendBase/appendRelated,
// then the optional distance/valency/length tail) since the classifier
// uses it to route each slot into the matching embedding table.
func (f Flags) SlotGroups() []dict.Group {
	out := make([]dict.Group, 0, f.NumTokens())
	appendBaseGroups := func() {
		out = append(out, dict.Words)
		if f.UsePOS {
			out = append(out, dict.POS)
		}
		if f.UseCluster {
			out = append(out, dict.Clusters)
		}
	}
	appendRelatedGroups := func() {
		appendBaseGroups()
		out = append(out, dict.Labels)
	}

	for i := 0; i < baseSlotCount; i++ {
		appendBaseGroups()
	}
	for i := 0; i < relatedSlotCount; i++ {
		appendRelatedGroups()
	}
	if f.UseDistance {
		out = append(out, dict.Distances)
	}
	if f.UseValency {
		for i := 0; i < valencySlotCount; i++ {
			out = append(out, dict.Valencies)
		}
	}
	if f.UseLength {
		out = append(out, dict.Lengths)
	}
	return out
}

// Extractor produces feature vectors against a fixed Flags/Dictionaries
// pair.
type Extractor struct {
	Flags Flags
	Dict  *dict.Dictionaries
}

// NewExtractor builds an Extractor over d using the given flags.
func NewExtractor(flags Flags, d *dict.Dictionaries) *Extractor {
	return &Extractor{Flags: flags, Dict: d}
}

// Extract returns the fixed-length global-feature-id vector for c,
// ordered exactly as spec.md §4.3 fixes it.
func (e *Extractor) Extract(c *pstate.Configuration, sent *sentence.Sentence) []int32 {
	out := make([]int32, 0, e.Flags.NumTokens())

	for _, tok := range []int{c.Stack(1), c.Stack(0), c.Buffer(0), c.Buffer(1), c.Pass(0)} {
		out = e.appendBase(out, c, sent, tok)
	}

	for _, k := range []int{c.Stack(0), c.Buffer(0)} {
		lc := childOf(c, k, true)
		rc := childOf(c, k, false)
		lclc := childOf(c, lc, true)
		rcrc := childOf(c, rc, false)
		lh, lhLabel := headOf(c, k, true)
		rh, rhLabel := headOf(c, k, false)
		lhlh, lhlhLabel := headOf(c, lh, true)
		rhrh, rhrhLabel := headOf(c, rh, false)

		out = e.appendRelated(out, c, sent, lc, childLabel(c, k, lc))
		out = e.appendRelated(out, c, sent, rc, childLabel(c, k, rc))
		out = e.appendRelated(out, c, sent, lclc, childLabel(c, lc, lclc))
		out = e.appendRelated(out, c, sent, rcrc, childLabel(c, rc, rcrc))
		out = e.appendRelated(out, c, sent, lh, lhLabel)
		out = e.appendRelated(out, c, sent, rh, rhLabel)
		out = e.appendRelated(out, c, sent, lhlh, lhlhLabel)
		out = e.appendRelated(out, c, sent, rhrh, rhrhLabel)
	}

	if e.Flags.UseDistance {
		out = append(out, e.distanceID(c.Distance()))
	}
	if e.Flags.UseValency {
		s := c.Stack(0)
		b := c.Buffer(0)
		out = append(out,
			e.valencyID(valencyOf(c, s, valLeft)),
			e.valencyID(valencyOf(c, s, valRight)),
			e.valencyID(valencyOf(c, s, valLeftHead)),
			e.valencyID(valencyOf(c, s, valRightHead)),
			e.valencyID(valencyOf(c, b, valLeft)),
			e.valencyID(valencyOf(c, b, valLeftHead)),
		)
	}
	if e.Flags.UseLength {
		out = append(out, e.lengthID(c.PassSize()))
	}

	return out
}

func childOf(c *pstate.Configuration, k int, leftmost bool) int {
	if k == pstate.NIL {
		return pstate.NIL
	}
	if leftmost {
		return c.LeftmostChild(k)
	}
	return c.RightmostChild(k)
}

func headOf(c *pstate.Configuration, k int, leftmost bool) (int, string) {
	if k == pstate.NIL {
		return pstate.NIL, ""
	}
	var h int
	var label string
	var ok bool
	if leftmost {
		h, label, ok = c.LeftHead(k)
	} else {
		h, label, ok = c.RightHead(k)
	}
	if !ok {
		return pstate.NIL, ""
	}
	return h, label
}

// childLabel returns the label of the arc attaching child to head in
// the partial graph, or "" if either is NIL or the arc isn't there
// yet.
func childLabel(c *pstate.Configuration, head, child int) string {
	if head == pstate.NIL || child == pstate.NIL {
		return ""
	}
	for _, arc := range c.Graph().Heads(child) {
		if arc.Head == head {
			return arc.Label
		}
	}
	return ""
}

func (e *Extractor) appendBase(out []int32, c *pstate.Configuration, sent *sentence.Sentence, tok int) []int32 {
	words := e.Dict.WordsTable()
	out = append(out, e.wordID(words, tok, sent))
	if e.Flags.UsePOS {
		out = append(out, e.posID(tok, sent))
	}
	if e.Flags.UseCluster {
		out = append(out, e.clusterID(tok, sent))
	}
	return out
}

func (e *Extractor) appendRelated(out []int32, c *pstate.Configuration, sent *sentence.Sentence, tok int, label string) []int32 {
	out = e.appendBase(out, c, sent, tok)
	out = append(out, e.labelID(tok, label))
	return out
}

func (e *Extractor) wordID(words *dict.Table, tok int, sent *sentence.Sentence) int32 {
	local := words.NilID()
	switch {
	case tok == pstate.NIL:
		local = words.NilID()
	case tok == sentence.Root:
		if id, ok := words.RootID(); ok {
			local = id
		}
	default:
		local = words.Lookup(sent.At(tok).Form, true)
	}
	return e.Dict.GlobalID(dict.Words, local)
}

func (e *Extractor) posID(tok int, sent *sentence.Sentence) int32 {
	pos := e.Dict.POSTable()
	local := pos.NilID()
	switch {
	case tok == pstate.NIL:
		local = pos.NilID()
	case tok == sentence.Root:
		if id, ok := pos.RootID(); ok {
			local = id
		}
	default:
		local = pos.Lookup(sent.At(tok).POS, false)
	}
	return e.Dict.GlobalID(dict.POS, local)
}

func (e *Extractor) clusterID(tok int, sent *sentence.Sentence) int32 {
	clusters := e.Dict.ClustersTable()
	local := clusters.NilID()
	switch {
	case tok == pstate.NIL:
		local = clusters.NilID()
	case tok == sentence.Root:
		if id, ok := clusters.RootID(); ok {
			local = id
		}
	default:
		local = clusters.Lookup(sent.At(tok).Cluster, false)
	}
	return e.Dict.GlobalID(dict.Clusters, local)
}

func (e *Extractor) labelID(tok int, label string) int32 {
	labels := e.Dict.LabelsTable()
	local := labels.NilID()
	if tok != pstate.NIL && label != "" {
		local = labels.Lookup(label, false)
	}
	return e.Dict.GlobalID(dict.Labels, local)
}

func (e *Extractor) distanceID(d int) int32 {
	return e.intGroupID(dict.Distances, e.Dict.DistancesTable(), d)
}

func (e *Extractor) lengthID(n int) int32 {
	return e.intGroupID(dict.Lengths, e.Dict.LengthsTable(), n)
}

func (e *Extractor) valencyID(v int) int32 {
	return e.intGroupID(dict.Valencies, e.Dict.ValenciesTable(), v)
}

func (e *Extractor) intGroupID(group dict.Group, t *dict.Table, v int) int32 {
	local := t.NilID()
	if id, ok := t.IntID(v); ok {
		local = id
	} else if id, ok := t.UnknownID(); ok {
		local = id
	}
	return e.Dict.GlobalID(group, local)
}

type valencyKind uint8

const (
	valLeft valencyKind = iota
	valRight
	valLeftHead
	valRightHead
)

func valencyOf(c *pstate.Configuration, tok int, kind valencyKind) int {
	if tok == pstate.NIL {
		return 0
	}
	switch kind {
	case valLeft:
		return c.LeftValency(tok)
	case valRight:
		return c.RightValency(tok)
	case valLeftHead:
		return c.LeftHeadValency(tok)
	default:
		return c.RightHeadValency(tok)
	}
}
