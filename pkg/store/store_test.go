package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryJournal_RecentNewestFirst(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	for i, op := range []string{"a", "b", "c"} {
		if err := j.Record(ctx, RunRecord{RunID: op, Operation: op, StartedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RunID != "c" || got[1].RunID != "b" {
		t.Fatalf("got %+v", got)
	}
	all, _ := j.Recent(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("limit 0 should return all, got %d", len(all))
	}
}

func TestMemoryJournal_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryJournal().Record(ctx, RunRecord{}); err == nil {
		t.Fatal("expected context error")
	}
}
