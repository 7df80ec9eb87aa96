package dict

// Dictionaries bundles the seven frozen Tables and the contiguous
// global id space that stitches them together in the fixed order
// words → POS → labels → distances → valencies → clusters → lengths,
// the order the classifier's embedding tables and precompute cache
// both assume.
type Dictionaries struct {
	tables  [numGroups]*Table
	offsets [numGroups]int32
}

var globalOrder = [numGroups]Group{Words, POS, Labels, Distances, Valencies, Clusters, Lengths}

func (d *Dictionaries) computeOffsets() {
	var next int32
	for _, g := range globalOrder {
		d.offsets[g] = next
		next += int32(d.tables[g].Len())
	}
}

// Table returns the frozen table for a group.
func (d *Dictionaries) Table(g Group) *Table {
	return d.tables[g]
}

// WordsTable, POSTable, LabelsTable, DistancesTable, ValenciesTable,
// ClustersTable, LengthsTable are named accessors for the seven tables, convenient at call sites that
// know which group they need without spelling out dict.Words etc.
func (d *Dictionaries) WordsTable() *Table     { return d.tables[Words] }
func (d *Dictionaries) POSTable() *Table       { return d.tables[POS] }
func (d *Dictionaries) LabelsTable() *Table    { return d.tables[Labels] }
func (d *Dictionaries) DistancesTable() *Table { return d.tables[Distances] }
func (d *Dictionaries) ValenciesTable() *Table { return d.tables[Valencies] }
func (d *Dictionaries) ClustersTable() *Table  { return d.tables[Clusters] }
func (d *Dictionaries) LengthsTable() *Table   { return d.tables[Lengths] }

// GlobalID translates a table-local id into the contiguous cross-group
// id the embedding lookup and precompute cache key on.
func (d *Dictionaries) GlobalID(group Group, local int32) int32 {
	return d.offsets[group] + local
}

// NumGlobalIDs returns the total size of the global id space (the
// number of rows across all seven tables).
func (d *Dictionaries) NumGlobalIDs() int32 {
	var n int32
	for _, t := range d.tables {
		n += int32(t.Len())
	}
	return n
}

// GroupOffset returns the global id at which group's local id 0 lands,
// used by the classifier to slice a combined embedding matrix back
// into per-group rows on load.
func (d *Dictionaries) GroupOffset(group Group) int32 {
	return d.offsets[group]
}
