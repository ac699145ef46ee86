package render

import (
	"strings"
	"testing"
)

func TestFormatTableAlignment(t *testing.T) {
	lines := formatTable(
		[]string{"ID", "Item", "Chance"},
		[][]string{
			{"1", "A major - 1 octave", "12.5%"},
			{"12", "B♭ minor harmonic - 2 octaves", "7.0%"},
		},
		map[int]bool{0: true, 2: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], " 1  ") {
		t.Fatalf("expected right-aligned id column, got %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "7.0%") {
		t.Fatalf("expected right-aligned chance column, got %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil for empty table, got %v", lines)
	}
}

func TestFormatTableStyledCellAlignment(t *testing.T) {
	lines := formatTable(
		[]string{"Item", "State", "BPM"},
		[][]string{
			{"A major", "\x1b[38;2;200;154;58mfocus\x1b[0m", "60"},
			{"B minor", "plain", "72"},
		},
		map[int]bool{2: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	styledIdx := strings.Index(lines[1], "60")
	plainIdx := strings.Index(lines[2], "72")
	if styledIdx < 0 || plainIdx < 0 {
		t.Fatalf("BPM cells missing: %q / %q", lines[1], lines[2])
	}
	if visibleWidth(lines[1][:styledIdx]) != visibleWidth(lines[2][:plainIdx]) {
		t.Fatalf("styled row misaligned:\n%q\n%q", lines[1], lines[2])
	}
}

func TestVisibleWidth(t *testing.T) {
	if got := visibleWidth("focus"); got != 5 {
		t.Fatalf("plain width = %d, want 5", got)
	}
	if got := visibleWidth("\x1b[1mfocus\x1b[0m"); got != 5 {
		t.Fatalf("styled width = %d, want 5", got)
	}
	if got := stripANSI("\x1b[38;2;200;154;58mB♭\x1b[0m"); got != "B♭" {
		t.Fatalf("stripANSI = %q, want %q", got, "B♭")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("expected untouched line, got %q", got)
	}
	got := truncateLine("a very long line that should be clipped", 10)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	styled := "\x1b[36mcolored\x1b[0m line"
	if got := truncateLine(styled, 3); got != styled {
		t.Fatalf("styled line must not be truncated, got %q", got)
	}
}
