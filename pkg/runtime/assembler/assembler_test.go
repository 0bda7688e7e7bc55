package assembler

import (
	"strings"
	"testing"
)

func TestClip_UnderBudgetUnchanged(t *testing.T) {
	a := New(WithMaxTokens(100))
	out, log := a.Clip("short output")
	if out != "short output" || log.Clipped || log.KeptTokens != len("short output") {
		t.Fatalf("out=%q log=%+v", out, log)
	}
}

func TestClip_TruncatesToBudget(t *testing.T) {
	a := New(WithMaxTokens(5))
	out, log := a.Clip("abcdefghij")
	if !strings.HasPrefix(out, "abcde\n") {
		t.Fatalf("out=%q", out)
	}
	if !log.Clipped || log.InputTokens != 10 || log.KeptTokens != 5 {
		t.Fatalf("log=%+v", log)
	}
	if !strings.Contains(out, "kept 5 of 10 tokens") {
		t.Fatalf("note missing: %q", out)
	}
}

func TestClip_RuneSafe(t *testing.T) {
	a := New(WithMaxTokens(3))
	out, _ := a.Clip("ÄÖÜßéè")
	if !strings.HasPrefix(out, "ÄÖÜ\n") {
		t.Fatalf("out=%q", out)
	}
}

func TestClip_CustomEstimator(t *testing.T) {
	words := func(s string) int { return len(strings.Fields(s)) }
	a := New(WithTokenEstimator(words), WithMaxTokens(2))
	out, log := a.Clip("one two three four")
	// The longest prefix with at most two words still ends before "three".
	if !strings.HasPrefix(out, "one two ") || strings.Contains(out, "three") {
		t.Fatalf("out=%q", out)
	}
	if log.InputTokens != 4 || log.KeptTokens != 2 {
		t.Fatalf("log=%+v", log)
	}
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	a := New(WithMaxTokens(0), WithTokenEstimator(nil))
	if a.MaxTokens() != 1_000_000_000 {
		t.Fatalf("max=%d", a.MaxTokens())
	}
	if a.ClipText("x") != "x" {
		t.Fatal("default estimator broken")
	}
}
