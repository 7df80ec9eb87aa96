package classifier

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/perr"
	"github.com/nihei9/depar/transition"
)

// headerKeys fixes the 19-line key=value header's order, per spec.md
// §6's model file format. The reader is strict about this order, the
// way the teacher's spec.parser is strict about grammar directive
// order before accepting a compiled grammar.
var headerKeys = []string{
	"labeled",
	"oracle",
	"use_postag",
	"use_distance",
	"use_valency",
	"use_cluster",
	"use_length",
	"embedding_size",
	"distance_embedding_size",
	"valency_embedding_size",
	"cluster_embedding_size",
	"length_embedding_size",
	"hidden_size",
	"num_basic_tokens",
	"num_dist_tokens",
	"num_valency_tokens",
	"num_cluster_tokens",
	"num_length_tokens",
	"num_pre_computed",
}

// Header is the decoded form of the model file's 19-line preamble.
type Header struct {
	Labeled     bool
	Oracle      string
	Flags       feature.Flags
	Dims        Dims
	HiddenSize  int
	NumBasic    int
	NumDist     int
	NumValency  int
	NumCluster  int
	NumLength   int
	NumPreComp  int
}

// SaveModel writes m in the 19-line-header text format spec.md §6
// fixes: header, then word/POS/label/distance/valency/cluster/length
// rows, then W1/b1/W2 matrices column-major, then precompute ids.
func SaveModel(w io.Writer, m *Model, h Header) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, h); err != nil {
		return err
	}
	d := m.Dict
	writeStringRows(bw, d.WordsTable(), m.Eb, 0)
	writeStringRows(bw, d.POSTable(), m.Eb, d.WordsTable().Len())
	if h.Labeled {
		writeStringRows(bw, d.LabelsTable(), m.Eb, d.WordsTable().Len()+d.POSTable().Len())
	}
	writeIntRows(bw, d.DistancesTable(), m.Ed)
	writeIntRows(bw, d.ValenciesTable(), m.Ev)
	writeIntRows(bw, d.ClustersTable(), m.Ec)
	writeIntRows(bw, d.LengthsTable(), m.El)

	writeColumnMajor(bw, m.W1)
	writeFloatRow(bw, m.B1)
	writeColumnMajor(bw, m.W2)

	writePreComputeIDs(bw, m.Precompute)

	return bw.Flush()
}

func writeHeader(w *bufio.Writer, h Header) error {
	values := map[string]string{
		"labeled":                 strconv.FormatBool(h.Labeled),
		"oracle":                  h.Oracle,
		"use_postag":              strconv.FormatBool(h.Flags.UsePOS),
		"use_distance":            strconv.FormatBool(h.Flags.UseDistance),
		"use_valency":             strconv.FormatBool(h.Flags.UseValency),
		"use_cluster":             strconv.FormatBool(h.Flags.UseCluster),
		"use_length":              strconv.FormatBool(h.Flags.UseLength),
		"embedding_size":          strconv.Itoa(h.Dims.Embed),
		"distance_embedding_size": strconv.Itoa(h.Dims.Distance),
		"valency_embedding_size":  strconv.Itoa(h.Dims.Valency),
		"cluster_embedding_size":  strconv.Itoa(h.Dims.Cluster),
		"length_embedding_size":   strconv.Itoa(h.Dims.Length),
		"hidden_size":             strconv.Itoa(h.HiddenSize),
		"num_basic_tokens":        strconv.Itoa(h.NumBasic),
		"num_dist_tokens":         strconv.Itoa(h.NumDist),
		"num_valency_tokens":      strconv.Itoa(h.NumValency),
		"num_cluster_tokens":      strconv.Itoa(h.NumCluster),
		"num_length_tokens":       strconv.Itoa(h.NumLength),
		"num_pre_computed":        strconv.Itoa(h.NumPreComp),
	}
	for _, k := range headerKeys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeStringRows(w *bufio.Writer, t *dict.Table, emb *mat.Dense, rowOffset int) {
	for id := 0; id < t.Len(); id++ {
		text, _ := t.Text(int32(id))
		fmt.Fprint(w, text)
		row := rowOffset + id
		_, cols := emb.Dims()
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, " %s", formatFloat(emb.At(row, j)))
		}
		fmt.Fprintln(w)
	}
}

func writeIntRows(w *bufio.Writer, t *dict.Table, emb *mat.Dense) {
	for id := 0; id < t.Len(); id++ {
		text, _ := t.Text(int32(id))
		fmt.Fprint(w, text)
		_, cols := emb.Dims()
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, " %s", formatFloat(emb.At(id, j)))
		}
		fmt.Fprintln(w)
	}
}

func writeColumnMajor(w *bufio.Writer, m *mat.Dense) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprint(w, formatFloat(m.At(i, j)))
		}
		fmt.Fprintln(w)
	}
}

func writeFloatRow(w *bufio.Writer, v []float64) {
	for i, x := range v {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, formatFloat(x))
	}
	fmt.Fprintln(w)
}

func writePreComputeIDs(w *bufio.Writer, c *Cache) {
	if c == nil {
		return
	}
	ids := make([]int32, 0, len(c.values))
	for k := range c.values {
		ids = append(ids, int32(k.Slot), k.GlobalID)
	}
	const chunk = 100
	for i := 0; i < len(ids); i += chunk {
		end := i + chunk
		if end > len(ids) {
			end = len(ids)
		}
		parts := make([]string, end-i)
		for j, id := range ids[i:end] {
			parts[j] = strconv.Itoa(int(id))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}

// LoadModel reads the format SaveModel writes, asserting the three
// shape invariants spec.md §6 requires (hidden size, per-group token
// counts, precompute count) before accepting the model — the way the
// teacher's spec parser asserts grammar shape invariants before
// accepting a compiled grammar.
func LoadModel(r io.Reader, d *dict.Dictionaries, actions []transition.Action) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)

	h, err := readHeader(sc)
	if err != nil {
		return nil, err
	}
	if h.NumBasic != d.WordsTable().Len()+d.POSTable().Len()+d.LabelsTable().Len() {
		return nil, perr.New(perr.DimensionMismatch, "model", "num_basic_tokens does not match the dictionary")
	}
	if h.NumDist != d.DistancesTable().Len() || h.NumValency != d.ValenciesTable().Len() ||
		h.NumCluster != d.ClustersTable().Len() || h.NumLength != d.LengthsTable().Len() {
		return nil, perr.New(perr.DimensionMismatch, "model", "per-group token count does not match the dictionary")
	}

	m := NewModel(d, h.Flags, h.Dims, actions, h.HiddenSize)

	readStringRows(sc, d.WordsTable(), m.Eb, 0)
	readStringRows(sc, d.POSTable(), m.Eb, d.WordsTable().Len())
	if h.Labeled {
		readStringRows(sc, d.LabelsTable(), m.Eb, d.WordsTable().Len()+d.POSTable().Len())
	}
	readFloatRows(sc, d.DistancesTable().Len(), m.Ed)
	readFloatRows(sc, d.ValenciesTable().Len(), m.Ev)
	readFloatRows(sc, d.ClustersTable().Len(), m.Ec)
	readFloatRows(sc, d.LengthsTable().Len(), m.El)

	readColumnMajor(sc, m.W1)
	m.B1 = readFloatLine(sc)
	if len(m.B1) != h.HiddenSize {
		return nil, perr.New(perr.DimensionMismatch, "model", "b1 length does not match hidden_size")
	}
	readColumnMajor(sc, m.W2)

	ids := readPreComputeIDs(sc)
	if len(ids)/2 != h.NumPreComp {
		return nil, perr.New(perr.DimensionMismatch, "model", "precompute id count does not match the header")
	}
	if len(ids) > 0 {
		cache := &Cache{values: make(map[cacheKey][]float64, len(ids)/2)}
		for i := 0; i+1 < len(ids); i += 2 {
			slot, id := int(ids[i]), ids[i+1]
			group := m.SlotGroups[slot]
			offset := m.SlotOffsets[slot]
			width := m.Dims.forGroup(group)
			tbl, row := m.embeddingFor(group, id)
			contribution := make([]float64, m.HiddenSize)
			for r := 0; r < m.HiddenSize; r++ {
				var sum float64
				for j := 0; j < width; j++ {
					sum += m.W1.At(r, offset+j) * tbl.At(row, j)
				}
				contribution[r] = sum
			}
			cache.values[cacheKey{Slot: slot, GlobalID: id}] = contribution
		}
		m.Precompute = cache
	}

	return m, nil
}

func readHeader(sc *bufio.Scanner) (Header, error) {
	values := map[string]string{}
	for _, want := range headerKeys {
		if !sc.Scan() {
			return Header{}, perr.New(perr.FormatMismatch, "model", "truncated header")
		}
		line := sc.Text()
		k, v, ok := strings.Cut(line, "=")
		if !ok || k != want {
			return Header{}, perr.New(perr.FormatMismatch, "model", "header out of order: expected "+want)
		}
		values[k] = v
	}
	atoi := func(k string) int {
		n, _ := strconv.Atoi(values[k])
		return n
	}
	atob := func(k string) bool {
		return values[k] == "true"
	}
	return Header{
		Labeled: atob("labeled"),
		Oracle:  values["oracle"],
		Flags: feature.Flags{
			UsePOS:      atob("use_postag"),
			UseDistance: atob("use_distance"),
			UseValency:  atob("use_valency"),
			UseCluster:  atob("use_cluster"),
			UseLength:   atob("use_length"),
		},
		Dims: Dims{
			Embed:    atoi("embedding_size"),
			Distance: atoi("distance_embedding_size"),
			Valency:  atoi("valency_embedding_size"),
			Cluster:  atoi("cluster_embedding_size"),
			Length:   atoi("length_embedding_size"),
		},
		HiddenSize: atoi("hidden_size"),
		NumBasic:   atoi("num_basic_tokens"),
		NumDist:    atoi("num_dist_tokens"),
		NumValency: atoi("num_valency_tokens"),
		NumCluster: atoi("num_cluster_tokens"),
		NumLength:  atoi("num_length_tokens"),
		NumPreComp: atoi("num_pre_computed"),
	}, nil
}

func readStringRows(sc *bufio.Scanner, t *dict.Table, emb *mat.Dense, rowOffset int) {
	_, cols := emb.Dims()
	for id := 0; id < t.Len(); id++ {
		sc.Scan()
		fields := strings.Fields(sc.Text())
		row := rowOffset + id
		for j := 0; j < cols && j+1 < len(fields); j++ {
			v, _ := strconv.ParseFloat(fields[j+1], 64)
			emb.Set(row, j, v)
		}
	}
}

func readFloatRows(sc *bufio.Scanner, n int, emb *mat.Dense) {
	_, cols := emb.Dims()
	for id := 0; id < n; id++ {
		sc.Scan()
		fields := strings.Fields(sc.Text())
		for j := 0; j < cols && j+1 < len(fields); j++ {
			v, _ := strconv.ParseFloat(fields[j+1], 64)
			emb.Set(id, j, v)
		}
	}
}

func readColumnMajor(sc *bufio.Scanner, m *mat.Dense) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		sc.Scan()
		fields := strings.Fields(sc.Text())
		for i := 0; i < rows && i < len(fields); i++ {
			v, _ := strconv.ParseFloat(fields[i], 64)
			m.Set(i, j, v)
		}
	}
}

func readFloatLine(sc *bufio.Scanner) []float64 {
	sc.Scan()
	fields := strings.Fields(sc.Text())
	out := make([]float64, len(fields))
	for i, f := range fields {
		out[i], _ = strconv.ParseFloat(f, 64)
	}
	return out
}

func readPreComputeIDs(sc *bufio.Scanner) []int32 {
	var ids []int32
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		for _, f := range strings.Fields(line) {
			n, _ := strconv.Atoi(f)
			ids = append(ids, int32(n))
		}
	}
	return ids
}
