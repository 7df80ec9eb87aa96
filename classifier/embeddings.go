package classifier

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/nihei9/depar/perr"
)

// LoadEmbeddings reads spec.md §6's pretrained-embedding format — one
// token per line followed by embedding_size floats, whitespace-
// separated — and copies each matched row into m.Eb's word block.
// Tokens absent from the dictionary are skipped; a case-insensitive
// fallback is tried before giving up on a line. A dimension mismatch
// against m.Dims.Embed is a hard error, per spec.md §6.
func LoadEmbeddings(r io.Reader, m *Model) (applied int, err error) {
	words := m.Dict.WordsTable()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<22)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != m.Dims.Embed+1 {
			return applied, perr.New(perr.DimensionMismatch, "embeddings",
				"expected "+strconv.Itoa(m.Dims.Embed)+" floats per line, got "+strconv.Itoa(len(fields)-1))
		}

		id, ok := words.ID(fields[0])
		if !ok {
			id, ok = words.ID(strings.ToLower(fields[0]))
		}
		if !ok {
			continue
		}

		for j, f := range fields[1:] {
			v, parseErr := strconv.ParseFloat(f, 64)
			if parseErr != nil {
				return applied, perr.Wrap(perr.FormatMismatch, fields[0], "invalid embedding value", parseErr)
			}
			m.Eb.Set(int(id), j, v)
		}
		applied++
	}
	if err := sc.Err(); err != nil {
		return applied, perr.Wrap(perr.IOFailure, "embeddings", "failed reading embedding stream", err)
	}
	return applied, nil
}
