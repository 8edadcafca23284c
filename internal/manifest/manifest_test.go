package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/ffmpeg"
)

func sampleManifest() *Manifest {
	return &Manifest{
		JobID: "job-1",
		Input: "/tmp/audio.mp3",
		Stats: &ffmpeg.AudioStats{
			Duration:   100,
			BitRate:    128000,
			SampleRate: 44100,
			Channels:   2,
		},
		Model:          "gpt-4o-transcribe",
		ResponseFormat: "json",
		Prompt:         "tech talk",
		Chunks: []ChunkRecord{
			{Index: 0, File: "chunk_0000.m4a", Start: 0, End: 43, OverlapTail: 3, Status: StatusDone, Text: "hello", LatencyMS: 1200},
			{Index: 1, File: "chunk_0001.m4a", Start: 37, End: 83, OverlapHead: 3, OverlapTail: 3, Status: StatusError, Error: "permanent failure"},
			{Index: 2, File: "chunk_0002.m4a", Start: 77, End: 100, OverlapHead: 3, Status: StatusPending},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := sampleManifest()
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.JobID != m.JobID || loaded.Input != m.Input {
		t.Errorf("identity fields changed: %+v", loaded)
	}
	if loaded.Model != m.Model || loaded.ResponseFormat != m.ResponseFormat || loaded.Prompt != m.Prompt {
		t.Errorf("policy snapshot changed: %+v", loaded)
	}
	if len(loaded.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(loaded.Chunks))
	}
	if loaded.Chunks[0].Status != StatusDone || loaded.Chunks[0].Text != "hello" {
		t.Errorf("done chunk not preserved: %+v", loaded.Chunks[0])
	}
	if loaded.Chunks[1].Status != StatusError || loaded.Chunks[1].Error != "permanent failure" {
		t.Errorf("error chunk not preserved: %+v", loaded.Chunks[1])
	}
	if loaded.Stats.Duration != 100 {
		t.Errorf("stats duration = %g, want 100", loaded.Stats.Duration)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := sampleManifest().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".manifest-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want only manifest.json", len(entries))
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := sampleManifest()
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}
	m.Chunks[2].Status = StatusDone
	m.Chunks[2].Text = "world"
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Chunks[2].Status != StatusDone || loaded.Chunks[2].Text != "world" {
		t.Errorf("second save not visible: %+v", loaded.Chunks[2])
	}
}

func TestPending(t *testing.T) {
	m := sampleManifest()
	pending := m.Pending()
	if len(pending) != 1 || pending[0] != 2 {
		t.Errorf("Pending() = %v, want [2]", pending)
	}

	m.Chunks[2].Status = StatusDone
	if got := m.Pending(); len(got) != 0 {
		t.Errorf("Pending() after completion = %v, want empty", got)
	}
}

func TestFailed(t *testing.T) {
	m := sampleManifest()
	if got := m.Failed(); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed manifest")
	}
}
