package journal

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRecorder collects records in memory. Used by tests and by callers
// that want journaling without persistence.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends one entry.
func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far, oldest first.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

var _ Recorder = (*MemoryRecorder)(nil)
