// Package store defines the run journal: one record per gateway operation.
// Implementations must provide identical semantics across backends.
package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RunRecord is the persisted summary of one operation call.
type RunRecord struct {
	RunID         string
	Operation     string
	Argument      string
	Provider      string
	OK            bool
	ErrorCategory string
	ErrorMessage  string
	ToolCount     int
	Steps         int
	StartedAt     time.Time
	Duration      time.Duration
}

// Journal records runs and lists the most recent ones.
type Journal interface {
	Record(ctx context.Context, r RunRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}

// MemoryJournal keeps records in process for the lifetime of the journal.
type MemoryJournal struct {
	mu      sync.Mutex
	records []RunRecord
}

// NewMemoryJournal returns an empty journal.
func NewMemoryJournal() *MemoryJournal { return &MemoryJournal{} }

func (m *MemoryJournal) Record(ctx context.Context, r RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *MemoryJournal) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	m.mu.Lock()
	out := append([]RunRecord(nil), m.records...)
	m.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryJournal) Close() error { return nil }
