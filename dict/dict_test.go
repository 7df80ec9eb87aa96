package dict

import "testing"

func TestBuilder_Build_WordCutOffFiltersRareWords(t *testing.T) {
	b := NewBuilder(2, "root", false)
	b.ObserveToken("the", "DET", "")
	b.ObserveToken("the", "DET", "")
	b.ObserveToken("dog", "NOUN", "")
	b.ObserveLabel("nsubj")
	b.ObserveLabel("root") // filtered: equals root label
	b.ObserveDynamic(1, 0, 5)
	d := b.Build()

	if _, ok := d.WordsTable().ID("the"); !ok {
		t.Fatal("expected 'the' (freq 2) to survive cutoff 2")
	}
	if _, ok := d.WordsTable().ID("dog"); ok {
		t.Fatal("expected 'dog' (freq 1) to be filtered by cutoff 2")
	}
}

func TestBuilder_Build_ReservedRowsAtTail(t *testing.T) {
	b := NewBuilder(1, "root", false)
	b.ObserveToken("dog", "NOUN", "")
	d := b.Build()

	words := d.WordsTable()
	n := words.Len()
	unk, ok := words.UnknownID()
	if !ok || unk != int32(n-3) {
		t.Fatalf("expected UNKNOWN at n-3=%d, got %d ok=%v", n-3, unk, ok)
	}
	if words.NilID() != int32(n-2) {
		t.Fatalf("expected NIL at n-2=%d, got %d", n-2, words.NilID())
	}
	root, ok := words.RootID()
	if !ok || root != int32(n-1) {
		t.Fatalf("expected ROOT at n-1=%d, got %d ok=%v", n-1, root, ok)
	}
}

func TestBuilder_Build_RootLabelSecondToLast(t *testing.T) {
	b := NewBuilder(1, "root", false)
	b.ObserveLabel("nsubj")
	b.ObserveLabel("obj")
	d := b.Build()

	labels := d.LabelsTable()
	n := labels.Len()
	rootID, ok := labels.ID("root")
	if !ok || rootID != int32(n-2) {
		t.Fatalf("expected root_label at n-2=%d, got %d ok=%v", n-2, rootID, ok)
	}
	if labels.NilID() != int32(n-1) {
		t.Fatalf("expected NIL last at n-1=%d, got %d", n-1, labels.NilID())
	}
}

func TestDictionaries_GlobalID_IsContiguousAcrossGroups(t *testing.T) {
	b := NewBuilder(1, "root", false)
	b.ObserveToken("dog", "NOUN", "")
	b.ObserveLabel("nsubj")
	b.ObserveDynamic(1, 0, 3)
	d := b.Build()

	wordsOffset := d.GroupOffset(Words)
	posOffset := d.GroupOffset(POS)
	if wordsOffset != 0 {
		t.Fatalf("expected words to start the global id space at 0, got %d", wordsOffset)
	}
	if posOffset != int32(d.WordsTable().Len()) {
		t.Fatalf("expected POS offset to start right after words, got %d want %d", posOffset, d.WordsTable().Len())
	}
	if d.GlobalID(POS, 0) != posOffset {
		t.Fatalf("expected GlobalID(POS,0) == posOffset")
	}
	if d.NumGlobalIDs() <= posOffset {
		t.Fatal("expected total id space to be larger than the POS offset alone")
	}
}

func TestTable_Lookup_Cascade(t *testing.T) {
	b := NewBuilder(1, "root", false)
	b.ObserveToken("Dog", "NOUN", "")
	d := b.Build()
	words := d.WordsTable()

	if id, ok := words.ID("Dog"); !ok {
		t.Fatal("expected exact match for 'Dog'")
	} else if got := words.Lookup("Dog", true); got != id {
		t.Fatalf("expected exact-match lookup to return the same id")
	}

	unk, _ := words.UnknownID()
	if got := words.Lookup("cat", true); got != unk {
		t.Fatalf("expected unseen word to fall back to UNKNOWN, got %d want %d", got, unk)
	}
}

func TestBuilder_Build_DelexicalizedWordsTableHasNoUnknownRow(t *testing.T) {
	b := NewBuilder(1, "root", true)
	b.ObserveToken("dog", "NOUN", "")
	d := b.Build()
	words := d.WordsTable()

	if _, ok := words.UnknownID(); ok {
		t.Fatal("expected a delexicalized words table to reserve no UNKNOWN row")
	}
	nonexist, ok := words.NonexistID()
	if !ok {
		t.Fatal("expected a delexicalized words table to reserve a NONEXIST row")
	}
	if got := words.Lookup("cat", true); got != nonexist {
		t.Fatalf("expected an unseen word to fall back to NONEXIST, got %d want %d", got, nonexist)
	}
}
