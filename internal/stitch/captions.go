package stitch

import (
	"math"
	"strings"
)

// DefaultSpanSecs is the target duration of one caption span.
const DefaultSpanSecs = 10.0

// Cue is one caption entry with millisecond-precision timing.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// DeriveCues splits each merged chunk into roughly targetSpan-second
// spans and partitions its text into rune-count-balanced pieces, one per
// span. This is a coarse heuristic: cue boundaries follow proportional
// position within the chunk, not speech boundaries.
func DeriveCues(chunks []MergedChunk, targetSpan float64) []Cue {
	if targetSpan <= 0 {
		targetSpan = DefaultSpanSecs
	}

	var cues []Cue
	idx := 1
	for _, ch := range chunks {
		dur := ch.End - ch.Start
		if dur < 0.001 {
			dur = 0.001
		}

		nspans := int(math.Round(dur / targetSpan))
		if nspans < 1 {
			nspans = 1
		}

		parts := splitBalanced(ch.Text, nspans)
		for j, part := range parts {
			cues = append(cues, Cue{
				Index: idx,
				Start: ch.Start + dur*float64(j)/float64(len(parts)),
				End:   ch.Start + dur*float64(j+1)/float64(len(parts)),
				Text:  strings.TrimSpace(part),
			})
			idx++
		}
	}
	return cues
}

// splitBalanced partitions text into n contiguous pieces whose rune
// counts differ by at most one. Not word-boundary-aware.
func splitBalanced(text string, n int) []string {
	if n <= 1 {
		return []string{text}
	}
	runes := []rune(text)
	base := len(runes) / n
	rem := len(runes) % n

	parts := make([]string, 0, n)
	pos := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		parts = append(parts, string(runes[pos:pos+size]))
		pos += size
	}
	return parts
}
