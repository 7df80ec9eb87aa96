package driver

import (
	"testing"
)

func TestLedger_RecordsEvalAndCheckpointRows(t *testing.T) {
	l, err := OpenLedger(":memory:")
	if err != nil {
		t.Fatalf("OpenLedger failed: %v", err)
	}
	defer l.Close()

	if l.RunID() == "" {
		t.Fatalf("expected OpenLedger to assign a non-empty run id")
	}

	if err := l.RecordEval(10, 0.9, 0.85); err != nil {
		t.Fatalf("RecordEval failed: %v", err)
	}
	if err := l.RecordCheckpoint(10, "/tmp/model.iter10.bin"); err != nil {
		t.Fatalf("RecordCheckpoint failed: %v", err)
	}

	var count int
	row := l.db.QueryRow(`SELECT COUNT(*) FROM eval_history WHERE run_id = ?`, l.runID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("querying eval_history failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d eval_history rows, want 1", count)
	}

	row = l.db.QueryRow(`SELECT COUNT(*) FROM checkpoints WHERE run_id = ?`, l.runID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("querying checkpoints failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d checkpoints rows, want 1", count)
	}
}

func TestLedger_NilLedgerIsANoOp(t *testing.T) {
	var l *Ledger
	if err := l.RecordEval(1, 0, 0); err != nil {
		t.Fatalf("expected a nil Ledger's RecordEval to be a no-op, got %v", err)
	}
	if err := l.RecordCheckpoint(1, "x"); err != nil {
		t.Fatalf("expected a nil Ledger's RecordCheckpoint to be a no-op, got %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("expected a nil Ledger's Close to be a no-op, got %v", err)
	}
	if l.RunID() != "" {
		t.Fatalf("expected a nil Ledger's RunID to be empty")
	}
}

func TestCheckpointPath_IncludesIteration(t *testing.T) {
	got := checkpointPath("/tmp/ckpt", 7)
	want := "/tmp/ckpt/model.iter7.bin"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
