package stitch

import (
	"strings"
	"testing"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
)

func doneChunk(index int, start, end float64, text string) manifest.ChunkRecord {
	return manifest.ChunkRecord{
		Index:  index,
		Start:  start,
		End:    end,
		Status: manifest.StatusDone,
		Text:   text,
	}
}

func manifestWith(chunks ...manifest.ChunkRecord) *manifest.Manifest {
	return &manifest.Manifest{JobID: "job", Chunks: chunks}
}

// lowThresholdStitcher accepts short overlaps so tests can use readable
// fixtures instead of 30-plus-character sentences.
func lowThresholdStitcher() *Stitcher {
	return &Stitcher{Finder: NewCommonRunFinder(5), Window: matchWindow}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf", "one\r\ntwo\rthree", "one\ntwo\nthree"},
		{"zero width", "he\u200bllo\ufeff world", "hello world"},
		{"line trim", "  a  \n\tb\t\n", "a\nb"},
		{"already clean", "plain text", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindOverlap(t *testing.T) {
	f := NewCommonRunFinder(5)

	match, ok := f.FindOverlap("the quick brown fox", "brown fox jumps over")
	if !ok {
		t.Fatal("no overlap found")
	}
	if got := "brown fox jumps over"[match.HeadOffset : match.HeadOffset+match.Length]; got != "brown fox" {
		t.Errorf("matched head run = %q, want %q", got, "brown fox")
	}
	if match.TailOffset != len("the quick ") {
		t.Errorf("tail offset = %d, want %d", match.TailOffset, len("the quick "))
	}

	if _, ok := f.FindOverlap("abcd", "wxyz"); ok {
		t.Error("found overlap between disjoint strings")
	}
	if _, ok := f.FindOverlap("", "anything"); ok {
		t.Error("found overlap with empty tail")
	}
	// Run below the threshold is rejected.
	if _, ok := f.FindOverlap("xx.abc.yy", "zz-abc-ww"); ok {
		t.Error("accepted 3-rune run below 5-rune minimum")
	}
}

func TestFindOverlapPicksLongestRun(t *testing.T) {
	f := NewCommonRunFinder(3)
	match, ok := f.FindOverlap("aaa bbbbbb", "bbbbbb aaa")
	if !ok {
		t.Fatal("no overlap found")
	}
	if match.Length != 6 {
		t.Errorf("match length = %d, want 6 (the longest run, not the first)", match.Length)
	}
	if match.HeadOffset != 0 {
		t.Errorf("head offset = %d, want 0", match.HeadOffset)
	}
}

func TestMergeDeduplicatesOverlap(t *testing.T) {
	s := lowThresholdStitcher()
	m := manifestWith(
		doneChunk(0, 0, 43, "the quick brown fox"),
		doneChunk(1, 37, 83, "brown fox jumps over"),
	)

	text, chunks := s.Merge(m)
	if text != "the quick brown fox jumps over" {
		t.Errorf("merged = %q, want %q", text, "the quick brown fox jumps over")
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d merged chunks, want 2", len(chunks))
	}
	if chunks[1].Start != 37 || chunks[1].End != 83 {
		t.Errorf("chunk timing lost: %+v", chunks[1])
	}
}

func TestMergeDefaultThreshold(t *testing.T) {
	// At the default 30-rune minimum a realistic sentence-length overlap
	// still dedups.
	overlap := "and that is precisely why the committee voted against it"
	m := manifestWith(
		doneChunk(0, 0, 43, "The meeting ran long. "+overlap),
		doneChunk(1, 37, 80, overlap+" in the end."),
	)

	text, _ := New().Merge(m)
	want := "The meeting ran long. " + overlap + " in the end."
	if text != want {
		t.Errorf("merged = %q, want %q", text, want)
	}
	if n := strings.Count(text, "committee"); n != 1 {
		t.Errorf("overlap duplicated: %q appears %d times", "committee", n)
	}
}

func TestMergeNoMatchJoinsWithSpace(t *testing.T) {
	s := lowThresholdStitcher()
	m := manifestWith(
		doneChunk(0, 0, 40, "completely different text"),
		doneChunk(1, 37, 80, "nothing shared here at all"),
	)

	text, _ := s.Merge(m)
	want := "completely different text nothing shared here at all"
	if text != want {
		t.Errorf("merged = %q, want %q", text, want)
	}
}

func TestMergeSkipsFailedAndEmptyChunks(t *testing.T) {
	s := lowThresholdStitcher()
	m := manifestWith(
		doneChunk(0, 0, 40, "first part here"),
		manifest.ChunkRecord{Index: 1, Start: 37, End: 80, Status: manifest.StatusError, Error: "gave up"},
		doneChunk(2, 77, 120, "\u200b \n"),
		doneChunk(3, 117, 160, "last part here"),
	)

	text, chunks := s.Merge(m)
	if text != "first part here last part here" {
		t.Errorf("merged = %q", text)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d contributors, want 2", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[1].Index != 3 {
		t.Errorf("contributor indexes = %d, %d, want 0, 3", chunks[0].Index, chunks[1].Index)
	}
}

func TestMergeEmptyManifest(t *testing.T) {
	text, chunks := New().Merge(manifestWith())
	if text != "" || len(chunks) != 0 {
		t.Errorf("Merge(empty) = %q, %v", text, chunks)
	}
}

func TestMergeSingleChunkVerbatim(t *testing.T) {
	m := manifestWith(doneChunk(0, 0, 30, "  just one chunk  "))
	text, chunks := New().Merge(m)
	if text != "just one chunk" {
		t.Errorf("merged = %q", text)
	}
	if len(chunks) != 1 || chunks[0].Text != "just one chunk" {
		t.Errorf("contributor = %+v", chunks)
	}
}

func TestMergeCarriesNormalizedTextIntoChunks(t *testing.T) {
	s := lowThresholdStitcher()
	m := manifestWith(doneChunk(0, 0, 40, "line one\r\nline two\u200b"))
	_, chunks := s.Merge(m)
	if chunks[0].Text != "line one\nline two" {
		t.Errorf("chunk text = %q, want normalized", chunks[0].Text)
	}
}
