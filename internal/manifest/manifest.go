// Package manifest holds the persisted job state shared between the
// planning, transcription and stitching stages. The manifest file is the
// sole hand-off artifact between stages, so a crashed run can resume from
// it without re-planning or re-transcribing settled chunks.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/ffmpeg"
)

// Chunk status values.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusError   = "error"
)

// ChunkRecord is one planned chunk plus its transcription outcome.
type ChunkRecord struct {
	Index       int     `json:"index"`
	File        string  `json:"file"`
	Start       float64 `json:"t_start"` // emitted range start, seconds
	End         float64 `json:"t_end"`   // emitted range end, seconds
	OverlapHead float64 `json:"overlap_head"`
	OverlapTail float64 `json:"overlap_tail"`
	Status      string  `json:"status"`
	Text        string  `json:"text"`
	LatencyMS   int64   `json:"latency_ms"`
	Retries     int     `json:"retries"`
	Error       string  `json:"error,omitempty"`
}

// Manifest is the persisted job state.
type Manifest struct {
	JobID          string             `json:"job_id"`
	Input          string             `json:"input"`
	Stats          *ffmpeg.AudioStats `json:"meta"`
	Model          string             `json:"model"`
	ResponseFormat string             `json:"response_format"`
	Prompt         string             `json:"prompt"`
	Chunks         []ChunkRecord      `json:"chunks"`
}

// Pending returns the indices of chunks that still need transcription.
// Chunks already marked done or error are left untouched on resume.
func (m *Manifest) Pending() []int {
	var idx []int
	for i := range m.Chunks {
		if m.Chunks[i].Status == StatusPending {
			idx = append(idx, i)
		}
	}
	return idx
}

// Failed returns the number of chunks that ended in error.
func (m *Manifest) Failed() int {
	n := 0
	for i := range m.Chunks {
		if m.Chunks[i].Status == StatusError {
			n++
		}
	}
	return n
}

// Save writes the manifest atomically: serialize to a temp file in the
// target directory, then rename over the destination. Readers never
// observe a torn checkpoint.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Load reads a manifest from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
