package whisper

import (
	"errors"
	"math"
	"testing"
)

func TestPlanWindowsLongAudio(t *testing.T) {
	windows, err := planWindows(90, 30, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []window{
		{start: 0, end: 30},
		{start: 27, end: 57},
		{start: 54, end: 84},
		{start: 81, end: 90},
	}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d: %v", len(want), len(windows), windows)
	}
	for i, w := range windows {
		if math.Abs(w.start-want[i].start) > 1e-9 || math.Abs(w.end-want[i].end) > 1e-9 {
			t.Fatalf("window %d: expected %v, got %v", i, want[i], w)
		}
	}
}

func TestPlanWindowsShortAudio(t *testing.T) {
	windows, err := planWindows(20, 30, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected single window, got %v", windows)
	}
	if windows[0].start != 0 || windows[0].end != 20 {
		t.Fatalf("expected (0,20), got %v", windows[0])
	}
}

func TestPlanWindowsConsecutiveStarts(t *testing.T) {
	windows, err := planWindows(300, 30, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(windows); i++ {
		wantStart := windows[i-1].end - 3
		// The final window may have been merged backwards, which extends the
		// previous end instead of opening a new start.
		if i == len(windows)-1 && windows[i].duration() < 30 {
			continue
		}
		if math.Abs(windows[i].start-wantStart) > 1e-9 {
			t.Fatalf("window %d start = %v, want prev.end - overlap = %v", i, windows[i].start, wantStart)
		}
	}
}

func TestPlanWindowsMergesShortTail(t *testing.T) {
	// 61s with 30s windows and 1s overlap: the last window would be
	// (58, 61) = 3s; with minTail=5 it merges into the previous window.
	windows, err := planWindows(61, 30, 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := windows[len(windows)-1]
	if last.end != 61 {
		t.Fatalf("expected final window to end at 61, got %v", last)
	}
	for _, w := range windows {
		if w.duration() < 5 {
			t.Fatalf("short window survived tail merge: %v", w)
		}
	}
}

func TestPlanWindowsTooMany(t *testing.T) {
	_, err := planWindows(20000, 10, 4, 2)
	if !errors.Is(err, ErrTooManyChunks) {
		t.Fatalf("expected ErrTooManyChunks, got %v", err)
	}
}

func TestMergeChunksNonOverlapping(t *testing.T) {
	got := mergeChunks([]chunkResult{{text: "a b"}, {text: "c d"}}, 5)
	if got != "a b c d" {
		t.Fatalf("expected %q, got %q", "a b c d", got)
	}
}

func TestMergeChunksBoundaryDuplicate(t *testing.T) {
	got := mergeChunks([]chunkResult{
		{text: "this is a test sentence"},
		{text: "test sentence and more words"},
	}, 5)
	want := "this is a test sentence and more words"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMergeChunksFiltersFailures(t *testing.T) {
	got := mergeChunks([]chunkResult{
		{text: "Hello"},
		{text: inaudibleMarker, failed: true},
		{text: "world"},
	}, 5)
	if got != "Hello world" {
		t.Fatalf("expected %q, got %q", "Hello world", got)
	}
}

func TestMergeChunksAllEmpty(t *testing.T) {
	got := mergeChunks([]chunkResult{
		{text: ""},
		{text: inaudibleMarker, failed: true},
		{text: "   "},
	}, 5)
	if got != "" {
		t.Fatalf("expected empty merge, got %q", got)
	}
}

func TestMergeChunksSingleText(t *testing.T) {
	got := mergeChunks([]chunkResult{{text: " xin chào "}}, 5)
	if got != "xin chào" {
		t.Fatalf("expected trimmed verbatim text, got %q", got)
	}
}

func TestMergeChunksShortPiecesSkipOverlapDetection(t *testing.T) {
	// Single-word pieces are appended as-is, even when they repeat.
	got := mergeChunks([]chunkResult{{text: "hello"}, {text: "hello"}}, 5)
	if got != "hello hello" {
		t.Fatalf("expected %q, got %q", "hello hello", got)
	}
}

func TestMergeChunksFullOverlap(t *testing.T) {
	// The entire next piece head duplicates the tail; only the remainder
	// survives.
	got := mergeChunks([]chunkResult{
		{text: "one two three"},
		{text: "two three four"},
	}, 5)
	if got != "one two three four" {
		t.Fatalf("expected %q, got %q", "one two three four", got)
	}
}
