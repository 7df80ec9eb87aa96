// Package conll reads and writes the 10-column CoNLL token format
// spec.md §6 fixes, folding a repeated token id into an additional
// (head, label) pair on the same child rather than a new token. The
// scanner tracks a 1-based row counter across the stream the way the
// teacher's hand-written spec/lexer.go tracked a row position while
// scanning a grammar source file, so a malformed row can be reported
// with its line number instead of a byte offset.
package conll

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nihei9/depar/perr"
	"github.com/nihei9/depar/sentence"
)

// Columns consumed from the 10-column format, per spec.md §6.
const (
	colID     = 0
	colForm   = 1
	colPOS    = 3
	colCluster = 5
	colHead   = 6
	colDeprel = 7
	numColumns = 10
)

// SentenceReader yields one (sentence, gold graph) pair at a time.
type SentenceReader interface {
	// Next returns the next sentence and its gold graph, or io.EOF when
	// the stream is exhausted.
	Next() (*sentence.Sentence, *sentence.Graph, error)
}

// Reader implements SentenceReader over the fixed 10-column format.
type Reader struct {
	sc  *bufio.Scanner
	row int
}

// NewReader wraps r as a SentenceReader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	return &Reader{sc: sc}
}

type pendingArc struct {
	child int
	head  int
	label string
}

// Next reads tokens up to the next blank line (or EOF) and assembles a
// Sentence and its gold Graph. A token id repeated within the same
// sentence is folded onto the existing child as an additional arc
// instead of producing a second Token, per spec.md §6.
func (r *Reader) Next() (*sentence.Sentence, *sentence.Graph, error) {
	var tokens []sentence.Token
	var arcs []pendingArc
	seenID := map[int]bool{}
	sawAnyLine := false

	for r.sc.Scan() {
		r.row++
		line := r.sc.Text()
		if strings.TrimSpace(line) == "" {
			if sawAnyLine {
				break
			}
			continue
		}
		sawAnyLine = true

		cols := strings.Split(line, "\t")
		if len(cols) < numColumns {
			return nil, nil, perr.New(perr.FormatMismatch, fmt.Sprintf("line %d", r.row),
				fmt.Sprintf("expected %d tab-separated columns, got %d", numColumns, len(cols)))
		}

		id, err := strconv.Atoi(cols[colID])
		if err != nil {
			return nil, nil, perr.Wrap(perr.FormatMismatch, fmt.Sprintf("line %d", r.row), "invalid token id", err)
		}
		head, err := strconv.Atoi(cols[colHead])
		if err != nil {
			return nil, nil, perr.Wrap(perr.FormatMismatch, fmt.Sprintf("line %d", r.row), "invalid head id", err)
		}

		if !seenID[id] {
			seenID[id] = true
			tokens = append(tokens, sentence.Token{
				Form:    cols[colForm],
				POS:     cols[colPOS],
				Cluster: cols[colCluster],
			})
		}
		arcs = append(arcs, pendingArc{child: id, head: head, label: cols[colDeprel]})
	}
	if err := r.sc.Err(); err != nil {
		return nil, nil, perr.Wrap(perr.IOFailure, fmt.Sprintf("line %d", r.row), "failed reading CoNLL stream", err)
	}
	if !sawAnyLine {
		return nil, nil, io.EOF
	}

	sent := sentence.New(tokens)
	g := sentence.NewGraph(len(tokens))
	for _, a := range arcs {
		if err := g.AddArc(a.head, a.child, a.label); err != nil {
			return nil, nil, perr.Wrap(perr.FormatMismatch, fmt.Sprintf("sentence ending at line %d", r.row),
				"gold arc rejected", err)
		}
	}
	return sent, g, nil
}

// ReadAll drains r into parallel sentence/gold slices.
func ReadAll(r SentenceReader) ([]*sentence.Sentence, []*sentence.Graph, error) {
	var sents []*sentence.Sentence
	var golds []*sentence.Graph
	for {
		s, g, err := r.Next()
		if err == io.EOF {
			return sents, golds, nil
		}
		if err != nil {
			return nil, nil, err
		}
		sents = append(sents, s)
		golds = append(golds, g)
	}
}

// Writer writes sentences and their predicted graphs back out in the
// same 10-column format, emitting one line per (head, label) pair on a
// multi-headed child.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w as a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write emits sent/graph as a blank-line-terminated block of rows.
func (w *Writer) Write(sent *sentence.Sentence, graph *sentence.Graph) error {
	bw := bufio.NewWriter(w.w)
	for i := 1; i <= sent.Len(); i++ {
		tok := sent.At(i)
		heads := graph.Heads(i)
		if len(heads) == 0 {
			heads = []sentence.Arc{{Head: sentence.Root, Label: ""}}
		}
		for _, a := range heads {
			cols := make([]string, numColumns)
			for j := range cols {
				cols[j] = "_"
			}
			cols[colID] = strconv.Itoa(i)
			cols[colForm] = tok.Form
			cols[colPOS] = tok.POS
			cols[colCluster] = tok.Cluster
			cols[colHead] = strconv.Itoa(a.Head)
			cols[colDeprel] = a.Label
			if _, err := fmt.Fprintln(bw, strings.Join(cols, "\t")); err != nil {
				return perr.Wrap(perr.IOFailure, "", "failed writing CoNLL row", err)
			}
		}
	}
	if _, err := fmt.Fprintln(bw); err != nil {
		return perr.Wrap(perr.IOFailure, "", "failed writing sentence boundary", err)
	}
	return bw.Flush()
}
