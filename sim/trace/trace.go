package trace

import "fmt"

// MemorySink keeps every record in memory, in the order it was appended.
type MemorySink struct {
	records []ActivityRecord
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{records: make([]ActivityRecord, 0)}
}

// Append stores a record. Records older than the last one are rejected so that
// a scheduling bug cannot silently produce an out-of-order trace.
func (s *MemorySink) Append(record ActivityRecord) error {
	if n := len(s.records); n > 0 && record.Time < s.records[n-1].Time {
		return fmt.Errorf("record at %d appended after record at %d", record.Time, s.records[n-1].Time)
	}
	s.records = append(s.records, record)
	return nil
}

// Records returns the stored trace. Callers must not modify the returned slice.
func (s *MemorySink) Records() []ActivityRecord {
	return s.records
}

// Len returns the number of stored records.
func (s *MemorySink) Len() int {
	return len(s.records)
}

// ActivityNames returns the distinct activity names in first-seen order.
func (s *MemorySink) ActivityNames() []string {
	return Flow(s.records).Nodes
}

// ForEntity returns the records of one entity, in trace order.
func (s *MemorySink) ForEntity(id int) []ActivityRecord {
	out := make([]ActivityRecord, 0)
	for _, r := range s.records {
		if r.EntityID == id {
			out = append(out, r)
		}
	}
	return out
}

// MultiSink fans every record out to several sinks, stopping at the first error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. Nil sinks are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Append forwards the record to each sink in order.
func (m *MultiSink) Append(record ActivityRecord) error {
	for i, s := range m.sinks {
		if err := s.Append(record); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}
