// Package stitch merges per-chunk transcripts into one continuous text,
// removing the duplicated words that overlapping chunk boundaries produce,
// and derives caption spans from the merged chunks.
package stitch

import (
	"strings"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
)

const (
	// matchWindow bounds how far the matcher looks into the running
	// text's tail and the next chunk's head, in runes.
	matchWindow = 500
	// minMatchLen is the shortest common run accepted as real overlap.
	minMatchLen = 30
)

// MergedChunk is one contributing chunk's normalized text with its
// original time range, used for caption generation. Caption timing is
// independent of the text-level dedup on the running merged string.
type MergedChunk struct {
	Index int     `json:"index"`
	Start float64 `json:"t_start"`
	End   float64 `json:"t_end"`
	Text  string  `json:"text"`
}

// Match locates a common contiguous run between a tail and a head window.
// Offsets and length are in runes.
type Match struct {
	TailOffset int
	HeadOffset int
	Length     int
}

// OverlapFinder reports the best common run between the merged text's
// tail and the next chunk's head. Implementations can be exact, fuzzy or
// token-based without touching the merge loop.
type OverlapFinder interface {
	FindOverlap(tail, head string) (Match, bool)
}

// commonRunFinder finds the longest common contiguous rune run.
type commonRunFinder struct {
	minLen int
}

// NewCommonRunFinder returns the default exact matcher, rejecting runs
// shorter than minLen runes.
func NewCommonRunFinder(minLen int) OverlapFinder {
	return commonRunFinder{minLen: minLen}
}

func (f commonRunFinder) FindOverlap(tail, head string) (Match, bool) {
	a := []rune(tail)
	b := []rune(head)
	if len(a) == 0 || len(b) == 0 {
		return Match{}, false
	}

	var best Match
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best.Length {
					best = Match{
						TailOffset: i - cur[j],
						HeadOffset: j - cur[j],
						Length:     cur[j],
					}
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}

	if best.Length < f.minLen {
		return Match{}, false
	}
	return best, true
}

// Stitcher merges chunk transcripts in index order.
type Stitcher struct {
	Finder OverlapFinder
	Window int // tail/head window size in runes
}

// New returns a Stitcher with the default exact matcher.
func New() *Stitcher {
	return &Stitcher{
		Finder: NewCommonRunFinder(minMatchLen),
		Window: matchWindow,
	}
}

// Merge walks the manifest's chunks in index order and returns the
// deduplicated full text plus the per-chunk records used for captions.
// Chunks that are not done, or done with empty text, contribute nothing
// and are absent from the result.
func (s *Stitcher) Merge(m *manifest.Manifest) (string, []MergedChunk) {
	var merged []rune
	var out []MergedChunk

	for i := range m.Chunks {
		c := &m.Chunks[i]
		if c.Status != manifest.StatusDone {
			continue
		}
		norm := Normalize(c.Text)
		if norm == "" {
			continue
		}

		next := []rune(norm)
		if len(merged) == 0 {
			merged = next
		} else {
			merged = s.join(merged, next)
		}

		out = append(out, MergedChunk{
			Index: c.Index,
			Start: c.Start,
			End:   c.End,
			Text:  norm,
		})
	}

	return strings.TrimSpace(string(merged)), out
}

// join appends next to merged, dropping next's leading text when its head
// window shares a long enough run with merged's tail window. Without a
// usable match the two are concatenated with a single space: a minor seam
// is safer than corrupting content.
func (s *Stitcher) join(merged, next []rune) []rune {
	tailStart := len(merged) - s.Window
	if tailStart < 0 {
		tailStart = 0
	}
	headEnd := s.Window
	if headEnd > len(next) {
		headEnd = len(next)
	}

	match, ok := s.Finder.FindOverlap(string(merged[tailStart:]), string(next[:headEnd]))
	if ok {
		cut := match.HeadOffset + match.Length
		return append(merged, next[cut:]...)
	}
	return append(append(merged, ' '), next...)
}

// zero-width characters stripped during normalization.
var zeroWidthReplacer = strings.NewReplacer(
	"\u200b", "", // zero width space
	"\u200c", "", // zero width non-joiner
	"\u200d", "", // zero width joiner
	"\ufeff", "", // byte order mark
)

// Normalize stabilizes text for matching: normalize line endings, strip
// zero-width characters, trim each line and the ends.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = zeroWidthReplacer.Replace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
