package driver

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nihei9/depar/perr"
)

// Ledger is a SQLite-backed record of one training run's evaluation
// history and checkpoint paths, grounded on playbymail-ottomap's
// stores/sqlite package: open-or-create against a plain file path,
// log.Printf on every mutating call, a thin *sql.DB underneath.
// spec.md §4.5 only asks Train to "retain the best model" and take
// "periodic checkpoints"; Ledger is additive bookkeeping for that —
// nothing about parsing semantics depends on it, and Train runs fine
// with a nil *Ledger.
type Ledger struct {
	db    *sql.DB
	runID string
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS eval_history (
	run_id      TEXT NOT NULL,
	iteration   INTEGER NOT NULL,
	labeled_f   REAL NOT NULL,
	unlabeled_f REAL NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id      TEXT NOT NULL,
	iteration   INTEGER NOT NULL,
	path        TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);
`

// OpenLedger opens (creating if absent) a SQLite ledger at path and
// starts a new run id for subsequent RecordEval/RecordCheckpoint calls.
func OpenLedger(path string) (*Ledger, error) {
	log.Printf("ledger: opening %q", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, perr.Wrap(perr.IOFailure, path, "cannot open ledger database", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, perr.Wrap(perr.IOFailure, path, "cannot create ledger schema", err)
	}
	return &Ledger{db: db, runID: uuid.NewString()}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// RunID returns the uuid tagging every row this Ledger writes.
func (l *Ledger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// RecordEval appends one evaluation-cycle row.
func (l *Ledger) RecordEval(iteration int, labeledF, unlabeledF float64) error {
	if l == nil || l.db == nil {
		return nil
	}
	log.Printf("ledger: run %s iter %d: labeled-F=%.4f unlabeled-F=%.4f", l.runID, iteration, labeledF, unlabeledF)
	_, err := l.db.Exec(
		`INSERT INTO eval_history (run_id, iteration, labeled_f, unlabeled_f, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		l.runID, iteration, labeledF, unlabeledF, timestamp(),
	)
	if err != nil {
		return perr.Wrap(perr.IOFailure, "eval_history", "cannot record evaluation", err)
	}
	return nil
}

// RecordCheckpoint appends one checkpoint-path row.
func (l *Ledger) RecordCheckpoint(iteration int, path string) error {
	if l == nil || l.db == nil {
		return nil
	}
	log.Printf("ledger: run %s iter %d: checkpoint %q", l.runID, iteration, path)
	_, err := l.db.Exec(
		`INSERT INTO checkpoints (run_id, iteration, path, recorded_at) VALUES (?, ?, ?, ?)`,
		l.runID, iteration, path, timestamp(),
	)
	if err != nil {
		return perr.Wrap(perr.IOFailure, "checkpoints", "cannot record checkpoint", err)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// checkpointPath builds a deterministic checkpoint file name under dir.
func checkpointPath(dir string, iteration int) string {
	return fmt.Sprintf("%s%cmodel.iter%d.bin", dir, os.PathSeparator, iteration)
}
