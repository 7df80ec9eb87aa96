package classifier

import "sort"

// cacheKey discriminates a feature slot from the global id observed in
// it — spec.md §4.3's "slot_index · T + global_feature_id" positional
// key, kept here as a struct instead of a packed integer since depar's
// global id space is larger than a single slot count would allow
// collision-free packing.
type cacheKey struct {
	Slot     int
	GlobalID int32
}

// Cache is the dense (slot, global-feature-id) -> H-vector lookup
// spec.md §4.4 describes: a direct adaptation of the teacher's
// compressor.UniqueEntriesTable, which deduplicates (row, col) pairs
// behind a Lookup method and is rebuilt whole-cloth from the original
// table rather than patched incrementally. PreCompute below plays the
// same role Compress does there.
type Cache struct {
	values map[cacheKey][]float64
}

func (c *Cache) lookup(slot int, id int32) ([]float64, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[cacheKey{Slot: slot, GlobalID: id}]
	return v, ok
}

// Len returns the number of (slot, global-feature-id) pairs cached,
// i.e. the model file header's num_pre_computed value.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// FreqCounter accumulates (slot, global-feature-id) observation
// counts during dataset generation, the input PreCompute needs to
// pick its top-K pairs.
type FreqCounter struct {
	counts map[cacheKey]int
}

// NewFreqCounter creates an empty FreqCounter.
func NewFreqCounter() *FreqCounter {
	return &FreqCounter{counts: map[cacheKey]int{}}
}

// Observe records one (slot, global-feature-id) occurrence, as seen in
// one dataset sample's feature vector.
func (f *FreqCounter) Observe(features []int32) {
	for slot, id := range features {
		f.counts[cacheKey{Slot: slot, GlobalID: id}]++
	}
}

// PreCompute rebuilds m.Precompute whole-cloth: the topK most
// frequently observed (slot, id) pairs, each mapped to the H-vector
// contribution its embedding row makes through the corresponding W1
// column slice (spec.md §4.4's pre_compute()).
func (m *Model) PreCompute(freq *FreqCounter, topK int) {
	type entry struct {
		key   cacheKey
		count int
	}
	entries := make([]entry, 0, len(freq.counts))
	for k, n := range freq.counts {
		entries = append(entries, entry{k, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		// Deterministic tie-break so PreCompute is reproducible across
		// runs given the same frequency table.
		if entries[i].key.Slot != entries[j].key.Slot {
			return entries[i].key.Slot < entries[j].key.Slot
		}
		return entries[i].key.GlobalID < entries[j].key.GlobalID
	})
	if len(entries) > topK {
		entries = entries[:topK]
	}

	cache := &Cache{values: make(map[cacheKey][]float64, len(entries))}
	for _, e := range entries {
		group := m.SlotGroups[e.key.Slot]
		offset := m.SlotOffsets[e.key.Slot]
		width := m.Dims.forGroup(group)
		tbl, row := m.embeddingFor(group, e.key.GlobalID)

		contribution := make([]float64, m.HiddenSize)
		for i := 0; i < m.HiddenSize; i++ {
			var sum float64
			for j := 0; j < width; j++ {
				sum += m.W1.At(i, offset+j) * tbl.At(row, j)
			}
			contribution[i] = sum
		}
		cache.values[e.key] = contribution
	}
	m.Precompute = cache
}
