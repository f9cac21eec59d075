package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DefaultStartTime anchors simulated minute 0 to a wall-clock instant for exports.
var DefaultStartTime = time.Date(2024, 5, 26, 16, 0, 0, 0, time.UTC)

// DateTimeLayout is the layout of the "Date Time" column.
const DateTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"Date Time", "Order Number", "Activity", "Server"}

// CSVWriter is a Sink that stores records as CSV rows. Simulated minutes are
// converted to wall-clock times relative to a start instant.
type CSVWriter struct {
	path   string
	file   *os.File
	w      *csv.Writer
	start  time.Time
	closed bool
}

// NewCSVWriter writes CSV rows to out. The header is written immediately.
func NewCSVWriter(out io.Writer, start time.Time) (*CSVWriter, error) {
	w := &CSVWriter{w: csv.NewWriter(out), start: start}
	if err := w.w.Write(csvHeader); err != nil {
		return nil, err
	}
	return w, nil
}

// CreateCSVFile creates the CSV file at path and returns a writer for it. An
// empty path picks a unique name. Existing files are never overwritten. The
// file is flushed and closed at process exit if Close was not called.
func CreateCSVFile(path string, start time.Time) (*CSVWriter, error) {
	if path == "" {
		path = "servsim_trace_" + xid.New().String() + ".csv"
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewCSVWriter(file, start)
	if err != nil {
		file.Close()
		return nil, err
	}
	w.path = path
	w.file = file

	atexit.Register(func() {
		_ = w.Close()
	})
	return w, nil
}

// Path returns the file path, or "" for writers not backed by a file.
func (w *CSVWriter) Path() string {
	return w.path
}

// Append writes one row.
func (w *CSVWriter) Append(record ActivityRecord) error {
	if w.closed {
		return fmt.Errorf("csv writer %s is closed", w.path)
	}
	at := w.start.Add(time.Duration(record.Time) * time.Minute)
	return w.w.Write([]string{
		at.Format(DateTimeLayout),
		strconv.Itoa(record.EntityID),
		record.Activity,
		record.Server,
	})
}

// Flush writes buffered rows to the underlying writer.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the file. Calling Close more than once is a no-op.
func (w *CSVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.Flush()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
