package stitch

import (
	"math"
	"strings"
	"testing"
)

func TestSplitBalanced(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want []string
	}{
		{"abcdef", 1, []string{"abcdef"}},
		{"abcdef", 2, []string{"abc", "def"}},
		{"abcdefg", 3, []string{"abc", "de", "fg"}},
		{"ab", 3, []string{"a", "b", ""}},
		{"", 2, []string{"", ""}},
	}
	for _, tt := range tests {
		got := splitBalanced(tt.text, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("splitBalanced(%q, %d) = %v, want %v", tt.text, tt.n, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitBalanced(%q, %d)[%d] = %q, want %q", tt.text, tt.n, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSplitBalancedMultibyte(t *testing.T) {
	parts := splitBalanced("日本語のテキスト", 2)
	if parts[0] != "日本語の" || parts[1] != "テキスト" {
		t.Errorf("splitBalanced multibyte = %q", parts)
	}
}

func TestDeriveCuesSpanCount(t *testing.T) {
	chunks := []MergedChunk{{Index: 0, Start: 0, End: 40, Text: strings.Repeat("word ", 40)}}

	cues := DeriveCues(chunks, 10)
	if len(cues) != 4 {
		t.Fatalf("got %d cues for a 40s chunk at 10s spans, want 4", len(cues))
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			t.Errorf("cue %d has index %d, want %d", i, cue.Index, i+1)
		}
	}
	if cues[0].Start != 0 || cues[0].End != 10 {
		t.Errorf("first cue timing [%g,%g], want [0,10]", cues[0].Start, cues[0].End)
	}
	if cues[3].Start != 30 || cues[3].End != 40 {
		t.Errorf("last cue timing [%g,%g], want [30,40]", cues[3].Start, cues[3].End)
	}
}

func TestDeriveCuesShortChunkGetsOneCue(t *testing.T) {
	cues := DeriveCues([]MergedChunk{{Start: 0, End: 3, Text: "brief"}}, 10)
	if len(cues) != 1 {
		t.Fatalf("got %d cues, want 1", len(cues))
	}
	if cues[0].Start != 0 || cues[0].End != 3 || cues[0].Text != "brief" {
		t.Errorf("cue = %+v", cues[0])
	}
}

func TestDeriveCuesNumberingSpansChunks(t *testing.T) {
	chunks := []MergedChunk{
		{Index: 0, Start: 0, End: 20, Text: strings.Repeat("a", 20)},
		{Index: 1, Start: 20, End: 40, Text: strings.Repeat("b", 20)},
	}

	cues := DeriveCues(chunks, 10)
	if len(cues) != 4 {
		t.Fatalf("got %d cues, want 4", len(cues))
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			t.Errorf("cue %d index = %d, want sequential numbering", i, cue.Index)
		}
	}
	// The second chunk's cues start where the first chunk's timing ends.
	if cues[2].Start != 20 {
		t.Errorf("third cue starts at %g, want 20", cues[2].Start)
	}
}

func TestDeriveCuesProportionalTiming(t *testing.T) {
	cues := DeriveCues([]MergedChunk{{Start: 10, End: 40, Text: strings.Repeat("x", 30)}}, 10)
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}
	for i, cue := range cues {
		wantStart := 10 + float64(i)*10
		if math.Abs(cue.Start-wantStart) > 1e-9 || math.Abs(cue.End-(wantStart+10)) > 1e-9 {
			t.Errorf("cue %d timing [%g,%g], want [%g,%g]", i, cue.Start, cue.End, wantStart, wantStart+10)
		}
		if len(cue.Text) != 10 {
			t.Errorf("cue %d text length %d, want 10", i, len(cue.Text))
		}
	}
}

func TestDeriveCuesZeroTargetUsesDefault(t *testing.T) {
	cues := DeriveCues([]MergedChunk{{Start: 0, End: 20, Text: "some speech here"}}, 0)
	if len(cues) != 2 {
		t.Errorf("got %d cues for a 20s chunk at the default span, want 2", len(cues))
	}
}

func TestDeriveCuesEmptyInput(t *testing.T) {
	if cues := DeriveCues(nil, 10); len(cues) != 0 {
		t.Errorf("DeriveCues(nil) = %v, want empty", cues)
	}
}
