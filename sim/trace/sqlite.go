package trace

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

const createTraceTable = `
CREATE TABLE IF NOT EXISTS trace (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT    NOT NULL,
	time      INTEGER NOT NULL,
	entity_id INTEGER NOT NULL,
	activity  TEXT    NOT NULL,
	server    TEXT    NOT NULL,
	kind      TEXT    NOT NULL
)`

const insertTraceRecord = `
INSERT INTO trace (run_id, time, entity_id, activity, server, kind)
VALUES (?, ?, ?, ?, ?, ?)`

// SQLiteWriter is a Sink that batches records into a SQLite database.
type SQLiteWriter struct {
	db        *sql.DB
	statement *sql.Stmt
	path      string
	runID     string
	pending   []ActivityRecord
	batchSize int
	closed    bool
}

// OpenSQLite opens (or creates) the database at path. An empty path picks a
// unique file name. Records are tagged with runID so several runs can share a
// database file.
func OpenSQLite(path, runID string) (*SQLiteWriter, error) {
	if path == "" {
		path = "servsim_trace_" + xid.New().String() + ".sqlite3"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(createTraceTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trace table: %w", err)
	}
	stmt, err := db.Prepare(insertTraceRecord)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}

	w := &SQLiteWriter{
		db:        db,
		statement: stmt,
		path:      path,
		runID:     runID,
		batchSize: 10000,
	}
	atexit.Register(func() {
		_ = w.Close()
	})
	fmt.Fprintf(os.Stderr, "Trace is collected in database: %s\n", path)
	return w, nil
}

// Path returns the database file path.
func (w *SQLiteWriter) Path() string {
	return w.path
}

// Append buffers a record and writes the batch once it is full.
func (w *SQLiteWriter) Append(record ActivityRecord) error {
	if w.closed {
		return fmt.Errorf("sqlite writer %s is closed", w.path)
	}
	w.pending = append(w.pending, record)
	if len(w.pending) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush writes all buffered records in one transaction.
func (w *SQLiteWriter) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(w.statement)
	for _, r := range w.pending {
		if _, err := stmt.Exec(w.runID, r.Time, r.EntityID, r.Activity, r.Server, string(r.Kind)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting record %v: %w", r, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	w.pending = nil
	return nil
}

// Records reads back the records of runID in insertion order.
func (w *SQLiteWriter) Records(runID string) ([]ActivityRecord, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}
	rows, err := w.db.Query(
		`SELECT time, entity_id, activity, server, kind FROM trace WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ActivityRecord, 0)
	for rows.Next() {
		var r ActivityRecord
		var kind string
		if err := rows.Scan(&r.Time, &r.EntityID, &r.Activity, &r.Server, &kind); err != nil {
			return nil, err
		}
		r.Kind = RecordKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close flushes pending records and closes the database. Calling Close more
// than once is a no-op.
func (w *SQLiteWriter) Close() error {
	if w.closed {
		return nil
	}
	err := w.Flush()
	w.closed = true
	if cerr := w.statement.Close(); err == nil {
		err = cerr
	}
	if cerr := w.db.Close(); err == nil {
		err = cerr
	}
	return err
}
