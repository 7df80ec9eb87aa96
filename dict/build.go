package dict

import (
	"sort"
	"strconv"
)

// tableBuilder accumulates frequency counts for one group before the
// table is frozen, the way the teacher's grammar construction scans
// every production before assigning symbol numbers.
type tableBuilder struct {
	group Group
	freq  map[string]int
	order []string // first-seen order, used to break frequency ties deterministically
}

func newTableBuilder(group Group) *tableBuilder {
	return &tableBuilder{group: group, freq: map[string]int{}}
}

func (b *tableBuilder) observe(text string) {
	if _, ok := b.freq[text]; !ok {
		b.order = append(b.order, text)
	}
	b.freq[text]++
}

func (b *tableBuilder) observeInt(v int) {
	b.observe(strconv.Itoa(v))
}

// freeze assigns dense ids 0..n-1 to every text whose frequency is >=
// cutoff, in descending-frequency order (ties broken by first-seen
// order), then appends the reserved tail in the order given.
func (b *tableBuilder) freeze(cutoff int, reservedTail []string) *Table {
	kept := make([]string, 0, len(b.order))
	for _, text := range b.order {
		if b.freq[text] >= cutoff {
			kept = append(kept, text)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return b.freq[kept[i]] > b.freq[kept[j]]
	})

	t := newTable(b.group)
	for _, text := range kept {
		id := int32(len(t.texts))
		t.texts = append(t.texts, text)
		t.text2id[text] = id
	}
	for _, name := range reservedTail {
		id := int32(len(t.texts))
		t.texts = append(t.texts, name)
		t.text2id[name] = id
		t.reserved[name] = id
	}
	t.frozen = true
	return t
}

// Builder scans training sentences and oracle-simulated configurations
// to build every Table, then freezes them into a Dictionaries. One
// Builder is used once: per spec.md §4.6, word_cut_off applies only to
// the words group; every other group uses a cutoff of 1.
type Builder struct {
	wordCutOff    int
	rootLabel     string
	delexicalized bool

	words, pos, labels, clusters *tableBuilder
	distances, valencies, lengths *tableBuilder
}

// NewBuilder creates a Builder. wordCutOff is spec.md §6's
// word_cut_off key; rootLabel is the label reserved for root arcs
// (appended at known_labels.size()-2, see DESIGN.md open question 2);
// delexicalized is spec.md §6's delexicalized key — when true, the
// words table reserves no UNKNOWN row (word identity is meant to be
// invisible to the classifier) and falls back to a NONEXIST sentinel
// instead (see Table.Lookup).
func NewBuilder(wordCutOff int, rootLabel string, delexicalized bool) *Builder {
	return &Builder{
		wordCutOff:    wordCutOff,
		rootLabel:     rootLabel,
		delexicalized: delexicalized,
		words:      newTableBuilder(Words),
		pos:        newTableBuilder(POS),
		labels:     newTableBuilder(Labels),
		clusters:   newTableBuilder(Clusters),
		distances:  newTableBuilder(Distances),
		valencies:  newTableBuilder(Valencies),
		lengths:    newTableBuilder(Lengths),
	}
}

// ObserveToken records one real token's word form, POS tag and cluster
// (vocabulary-building pass over the training corpus).
func (b *Builder) ObserveToken(form, pos, cluster string) {
	b.words.observe(form)
	b.pos.observe(pos)
	if cluster != "" {
		b.clusters.observe(cluster)
	}
}

// ObserveLabel records one non-root gold arc label.
func (b *Builder) ObserveLabel(label string) {
	if label == b.rootLabel {
		return
	}
	b.labels.observe(label)
}

// ObserveDynamic records a (distance, left-valency+right-valency,
// pass-buffer size) triple observed in some reachable configuration during
// oracle simulation over the training set, per spec.md §4.6's
// "dictionaries for dynamic features ... built by simulating the
// oracle".
func (b *Builder) ObserveDynamic(distance, valency, length int) {
	b.distances.observeInt(distance)
	b.valencies.observeInt(valency)
	b.lengths.observeInt(length)
}

// Build freezes every table and assembles the Dictionaries. Word,
// POS and cluster tables reserve UNKNOWN/NIL/ROOT; the label table
// reserves only root_label (placed second-to-last) then NIL, per
// DESIGN.md open question 2; the dynamic-int tables reserve
// UNKNOWN_INT then NIL. In delexicalized mode the words table reserves
// NONEXIST/NIL/ROOT instead of UNKNOWN/NIL/ROOT, since word identity is
// never looked up and so has no UNKNOWN row to fall back to.
func (b *Builder) Build() *Dictionaries {
	wordsTail := []string{reservedUnknown, reservedNil, reservedRoot}
	if b.delexicalized {
		wordsTail = []string{reservedNonexist, reservedNil, reservedRoot}
	}
	d := &Dictionaries{}
	d.tables[Words] = b.words.freeze(b.wordCutOff, wordsTail)
	d.tables[POS] = b.pos.freeze(1, []string{reservedUnknown, reservedNil, reservedRoot})
	d.tables[Clusters] = b.clusters.freeze(1, []string{reservedUnknown, reservedNil, reservedRoot})
	d.tables[Labels] = b.labels.freeze(1, []string{b.rootLabel, reservedNil})
	d.tables[Distances] = b.distances.freeze(1, []string{reservedUnknown, reservedNil})
	d.tables[Valencies] = b.valencies.freeze(1, []string{reservedUnknown, reservedNil})
	d.tables[Lengths] = b.lengths.freeze(1, []string{reservedUnknown, reservedNil})
	d.computeOffsets()
	return d
}
