package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestTailSmallFile(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&sb, "entry %d\n", i)
	}
	path := writeTranscript(t, "svcctl.log", sb.String())

	lines, err := Tail(path, 5)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}

	want := []string{"entry 16", "entry 17", "entry 18", "entry 19", "entry 20"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Tail() = %v, want %v", lines, want)
	}
}

func TestTailFewerLinesThanRequested(t *testing.T) {
	path := writeTranscript(t, "svcctl.log", "one\ntwo\nthree\n")

	lines, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(lines) != 3 {
		t.Errorf("Tail() returned %d lines, want 3", len(lines))
	}
}

func TestTailEmptyFile(t *testing.T) {
	path := writeTranscript(t, "svcctl.log", "")

	lines, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Tail() returned %d lines, want 0", len(lines))
	}
}

func TestTailNoTrailingNewline(t *testing.T) {
	path := writeTranscript(t, "svcctl.log", "first\nsecond\nlast without newline")

	lines, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}

	want := []string{"second", "last without newline"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Tail() = %v, want %v", lines, want)
	}
}

func TestTailRejectsBadCounts(t *testing.T) {
	path := writeTranscript(t, "svcctl.log", "entry\n")

	if _, err := Tail(path, 0); err == nil {
		t.Error("Tail(0) expected error")
	}
	if _, err := Tail(path, -5); err == nil {
		t.Error("Tail(-5) expected error")
	}
	if _, err := Tail(path, MaxLines+1); err == nil {
		t.Errorf("Tail(%d) expected error", MaxLines+1)
	}
}

func TestTailMissingFile(t *testing.T) {
	_, err := Tail(filepath.Join(t.TempDir(), "nope.log"), 5)
	if err == nil {
		t.Fatal("Tail() expected error for missing file")
	}
}

// TestTailLargeFileBackward pushes the file over the forward-read limit
// so the chunked backward scan handles CRLF endings and blank lines.
func TestTailLargeFileBackward(t *testing.T) {
	const total = 16000
	pad := strings.Repeat("x", 80)

	entries := make([]string, total)
	for i := range entries {
		entries[i] = fmt.Sprintf("entry %06d %s", i, pad)
	}
	entries[total-3] = "" // blank line near the tail

	path := writeTranscript(t, "svcctl.log", strings.Join(entries, "\r\n")+"\r\n")

	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat fixture: %v", err)
	}
	if stat.Size() < smallFileLimit {
		t.Fatalf("fixture too small to exercise backward read: %d bytes", stat.Size())
	}

	lines, err := Tail(path, 6)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}

	want := []string{
		entries[total-6],
		entries[total-5],
		entries[total-4],
		"",
		entries[total-2],
		entries[total-1],
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Tail() = %v, want %v", lines, want)
	}
}
