// Package dict assigns dense integer ids to the strings and small
// integers the feature extractor reads off a configuration: words,
// POS tags, arc labels, distances, valencies, clusters and sentence
// lengths. Each of these lives in its own dense id space (a Table);
// Dictionaries stitches the seven spaces into one contiguous global id
// used by the classifier's embedding tables and precompute cache.
//
// A Table is built, then frozen, mirroring the teacher's
// grammar.Grammar: a Builder interns every observed value, appends a
// fixed tail of reserved sentinel rows, and only then is the table
// safe to share for concurrent lookups.
package dict

import "strconv"

// Group names one of the seven disjoint dense id spaces.
type Group uint8

const (
	Words Group = iota
	POS
	Labels
	Distances
	Valencies
	Clusters
	Lengths
	numGroups
)

func (g Group) String() string {
	switch g {
	case Words:
		return "words"
	case POS:
		return "pos"
	case Labels:
		return "labels"
	case Distances:
		return "distances"
	case Valencies:
		return "valencies"
	case Clusters:
		return "clusters"
	case Lengths:
		return "lengths"
	default:
		return "?"
	}
}

// reservedUnknown/reservedNil/reservedRoot/reservedNonexist are the
// canonical sentinel row names spec.md §3 reserves; a Table's Reserved
// tail uses a subset of them depending on the group (see
// Builder.Build). reservedNonexist only ever appears on the words
// table, and only in delexicalized mode, where no UNKNOWN row is
// reserved at all (word identity is meant to be invisible to the
// classifier) but Lookup still needs a sentinel distinct from NIL to
// return for a word form that was never interned.
const (
	reservedUnknown  = "<unk>"
	reservedNil      = "<nil>"
	reservedRoot     = "<root>"
	reservedNonexist = "<nonexist>"
)

// Table is a frozen dense id space: id 0..n-1, with a fixed tail of
// reserved rows (see Reserved) always occupying the last len(Reserved)
// ids.
type Table struct {
	group    Group
	text2id  map[string]int32
	texts    []string
	reserved map[string]int32 // reserved row name -> id, subset of text2id
	frozen   bool
}

// newTable creates an empty, unfrozen table for group.
func newTable(group Group) *Table {
	return &Table{
		group:   group,
		text2id: map[string]int32{},
		reserved: map[string]int32{},
	}
}

// Group returns the id space this table assigns ids within.
func (t *Table) Group() Group { return t.group }

// Len returns the number of ids assigned (including reserved rows).
func (t *Table) Len() int { return len(t.texts) }

// ID returns the id assigned to text, or false if text was never
// interned and is not one of the reserved rows.
func (t *Table) ID(text string) (int32, bool) {
	id, ok := t.text2id[text]
	return id, ok
}

// IntID is the int-keyed counterpart of ID, used by the distance,
// valency and length groups, which intern the decimal text form of
// each observed integer.
func (t *Table) IntID(v int) (int32, bool) {
	return t.ID(strconv.Itoa(v))
}

// Text returns the text interned at id, or false if id is out of
// range.
func (t *Table) Text(id int32) (string, bool) {
	if id < 0 || int(id) >= len(t.texts) {
		return "", false
	}
	return t.texts[id], true
}

// UnknownID returns the id of this table's UNKNOWN/UNKNOWN_INT row, or
// (0, false) if the group has none (the labels group has none — see
// Builder.Build).
func (t *Table) UnknownID() (int32, bool) {
	id, ok := t.reserved[reservedUnknown]
	return id, ok
}

// NilID returns the id of this table's NIL row. Every table has one.
func (t *Table) NilID() int32 {
	return t.reserved[reservedNil]
}

// RootID returns the id of this table's ROOT row, or (0, false) if the
// group has none.
func (t *Table) RootID() (int32, bool) {
	id, ok := t.reserved[reservedRoot]
	return id, ok
}

// NonexistID returns the id of this table's NONEXIST row, or (0, false)
// if the group has none — only the words table reserves one, and only
// when the dictionary was built in delexicalized mode (see
// Builder.Build).
func (t *Table) NonexistID() (int32, bool) {
	id, ok := t.reserved[reservedNonexist]
	return id, ok
}

// Lookup resolves text against this table with the cascade spec.md §4.3
// requires of the words group and that the other string groups reuse:
// exact match, then (if cascadeLower) the lowercased form, then
// UNKNOWN, then NONEXIST if even UNKNOWN is absent (delexicalized
// mode), then NIL if neither sentinel was reserved.
func (t *Table) Lookup(text string, cascadeLower bool) int32 {
	if id, ok := t.ID(text); ok {
		return id
	}
	if cascadeLower {
		if id, ok := t.ID(lower(text)); ok {
			return id
		}
	}
	if id, ok := t.UnknownID(); ok {
		return id
	}
	if id, ok := t.NonexistID(); ok {
		return id
	}
	return t.NilID()
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
