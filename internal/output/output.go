// Package output writes the final transcript artifacts from stitch
// results: plain text, a structured JSON document, and SRT/VTT caption
// tracks.
package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/config"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/ffmpeg"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/stitch"
)

// Document is the structured transcript bundle written as transcript.json.
type Document struct {
	Source         string               `json:"source"`
	Stats          *ffmpeg.AudioStats   `json:"meta"`
	Model          string               `json:"model"`
	ResponseFormat string               `json:"response_format"`
	Prompt         string               `json:"prompt"`
	Chunks         []stitch.MergedChunk `json:"chunks"`
	FullText       string               `json:"full_text"`
}

// WriteAll writes the enabled artifacts into dir and returns the list of
// file names produced.
func WriteAll(dir string, m *manifest.Manifest, fullText string, chunks []stitch.MergedChunk, outputs config.OutputConfig) ([]string, error) {
	var written []string

	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, name)
		slog.Debug("wrote artifact", "file", name)
		return nil
	}

	if outputs.WriteTXT {
		if err := write("transcript.txt", []byte(fullText+"\n")); err != nil {
			return written, err
		}
	}

	if outputs.WriteJSON {
		doc := Document{
			Source:         m.Input,
			Stats:          m.Stats,
			Model:          m.Model,
			ResponseFormat: m.ResponseFormat,
			Prompt:         m.Prompt,
			Chunks:         chunks,
			FullText:       fullText,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshal transcript document: %w", err)
		}
		if err := write("transcript.json", data); err != nil {
			return written, err
		}
	}

	if outputs.WriteSRT || outputs.WriteVTT {
		cues := stitch.DeriveCues(chunks, stitch.DefaultSpanSecs)
		if outputs.WriteSRT {
			if err := write("transcript.srt", []byte(FormatSRT(cues))); err != nil {
				return written, err
			}
		}
		if outputs.WriteVTT {
			if err := write("transcript.vtt", []byte(FormatVTT(cues))); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}

// FormatSRT renders cues as an SRT caption track.
func FormatSRT(cues []stitch.Cue) string {
	var sb strings.Builder
	for _, cue := range cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			cue.Index,
			formatTimestamp(cue.Start, ','),
			formatTimestamp(cue.End, ','),
			cue.Text)
	}
	return sb.String()
}

// FormatVTT renders cues as a WebVTT caption track.
func FormatVTT(cues []stitch.Cue) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, cue := range cues {
		fmt.Fprintf(&sb, "%s --> %s\n%s\n\n",
			formatTimestamp(cue.Start, '.'),
			formatTimestamp(cue.End, '.'),
			cue.Text)
	}
	return sb.String()
}

// formatTimestamp converts seconds to HH:MM:SS<sep>mmm. SRT separates
// milliseconds with a comma, WebVTT with a period.
func formatTimestamp(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	millis := int(math.Round((seconds - float64(total)) * 1000))
	if millis == 1000 {
		total++
		millis = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		total/3600, (total%3600)/60, total%60, sep, millis)
}
