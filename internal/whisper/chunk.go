package whisper

import (
	"fmt"
	"math"
	"strings"
)

// maxWindows caps window planning. Hitting it means the boundary
// computation stopped advancing, not that the audio is genuinely that long.
const maxWindows = 1000

// window is a [start, end] slice of the source audio in seconds.
type window struct {
	start float64
	end   float64
}

func (w window) duration() float64 { return w.end - w.start }

// planWindows computes overlapping fixed-length windows covering d seconds
// of audio. Each window starts where the previous one ended minus the
// overlap. A final window shorter than minTail is merged into its
// predecessor so a near-empty tail does not cost an inference call.
func planWindows(d, length, overlap, minTail float64) ([]window, error) {
	var windows []window
	start := 0.0

	for start < d {
		end := math.Min(start+length, d)
		windows = append(windows, window{start: start, end: end})
		if end >= d {
			break
		}

		next := end - overlap
		if next <= start {
			// Overlap >= length/2 is rejected at configuration time, so a
			// non-advancing boundary here means the inputs are inconsistent.
			return nil, fmt.Errorf("%w: window start not advancing (start=%.2f next=%.2f)", ErrTooManyChunks, start, next)
		}
		start = next

		if len(windows) >= maxWindows {
			return nil, fmt.Errorf("%w: %d windows planned for %.1fs of audio", ErrTooManyChunks, len(windows), d)
		}
	}

	if len(windows) > 1 {
		last := windows[len(windows)-1]
		if last.duration() < minTail {
			windows[len(windows)-2].end = last.end
			windows = windows[:len(windows)-1]
		}
	}

	return windows, nil
}

// inaudibleMarker is the human-facing rendering of a failed window. It only
// exists at the logging/merge boundary; internal logic carries failure as a
// tag on chunkResult so text is never string-matched against it.
const inaudibleMarker = "[inaudible]"

// chunkResult is the outcome of transcribing one window.
type chunkResult struct {
	text   string
	failed bool
}

// mergeChunks folds ordered window texts into one transcript, suppressing
// words duplicated at the overlap seams. Overlapping windows tend to
// reproduce near-identical words in the shared time region; dropping the
// longest matching head of the next piece is a best-effort seam cleaner,
// not a lossless merge.
func mergeChunks(results []chunkResult, seamWords int) string {
	if seamWords <= 0 {
		seamWords = 5
	}

	var valid []string
	for _, r := range results {
		text := strings.TrimSpace(r.text)
		if r.failed || text == "" || text == inaudibleMarker {
			continue
		}
		valid = append(valid, text)
	}

	if len(valid) == 0 {
		return ""
	}
	if len(valid) == 1 {
		return valid[0]
	}

	merged := []string{valid[0]}
	for _, current := range valid[1:] {
		prevWords := strings.Fields(merged[len(merged)-1])
		currWords := strings.Fields(current)

		// Too few words on either side to detect an overlap reliably.
		if len(prevWords) < 2 || len(currWords) < 2 {
			merged = append(merged, current)
			continue
		}

		k := seamWords
		if len(prevWords) < k {
			k = len(prevWords)
		}
		if len(currWords) < k {
			k = len(currWords)
		}

		// Largest j such that the last j words of the accumulated tail equal
		// the first j words of the next piece.
		overlap := 0
		for j := 1; j <= k; j++ {
			if wordsEqual(prevWords[len(prevWords)-j:], currWords[:j]) {
				overlap = j
			}
		}

		if overlap > 0 {
			current = strings.Join(currWords[overlap:], " ")
		}
		if current != "" {
			merged = append(merged, current)
		}
	}

	return strings.Join(merged, " ")
}

func wordsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
