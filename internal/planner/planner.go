// Package planner decides chunk boundaries from audio statistics and
// materializes each chunk through the media toolkit.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/config"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/ffmpeg"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
)

// ErrInvalidInput marks input that cannot be planned at all, such as audio
// with no measurable duration.
var ErrInvalidInput = errors.New("invalid input")

// ExtractFunc materializes one time range of the source into a chunk file.
type ExtractFunc func(ctx context.Context, req ffmpeg.ExtractRequest) error

// ScanFunc reports silence intervals for the silence-aware segmenter.
type ScanFunc func(ctx context.Context, path string, noiseDB int, minDur float64) ([]ffmpeg.Silence, error)

// Planner produces a chunk plan and requests chunk materialization.
type Planner struct {
	Config  *config.Config
	Extract ExtractFunc
	Scan    ScanFunc
}

// New returns a Planner wired to the real ffmpeg toolkit.
func New(cfg *config.Config) *Planner {
	return &Planner{
		Config:  cfg,
		Extract: ffmpeg.Extract,
		Scan:    ffmpeg.DetectSilences,
	}
}

// Window derives the nominal chunk duration in seconds: the time span
// that, at the source bitrate, stays under the target chunk size. The
// result is clamped to [MinChunkSecs, MaxChunkSecs].
func Window(stats *ffmpeg.AudioStats, chunking config.ChunkingConfig) float64 {
	bitrate := stats.BitRate
	if bitrate < 1000 {
		bitrate = 1000
	}
	targetBytes := float64(chunking.TargetChunkMB) * 1e6
	window := targetBytes * 8 / float64(bitrate)

	if hi := float64(chunking.MaxChunkSecs); window > hi {
		window = hi
	}
	if lo := float64(chunking.MinChunkSecs); window < lo {
		window = lo
	}
	return window
}

// Plan lays out chunk boundaries over [0, duration], materializes each
// emitted range into chunksDir, and returns the resulting manifest. Any
// materialization failure is fatal: a missing chunk would silently break
// transcript continuity.
func (p *Planner) Plan(ctx context.Context, jobID, inputPath string, stats *ffmpeg.AudioStats, chunksDir string) (*manifest.Manifest, error) {
	if stats.Duration <= 0 {
		return nil, fmt.Errorf("%w: could not determine audio duration", ErrInvalidInput)
	}

	window := Window(stats, p.Config.Chunking)
	boundaries := layoutBoundaries(stats.Duration, window)

	if p.Config.Segmenter == "silence" {
		var err error
		boundaries, err = p.snapToSilences(ctx, inputPath, boundaries, stats.Duration)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("planned chunks",
		"duration_sec", fmt.Sprintf("%.1f", stats.Duration),
		"window_sec", fmt.Sprintf("%.1f", window),
		"chunks", len(boundaries)-1,
		"segmenter", p.Config.Segmenter)

	var spec *ffmpeg.ReencodeSpec
	if p.Config.Reencode.Enabled {
		spec = &ffmpeg.ReencodeSpec{
			Codec:       p.Config.Reencode.Codec,
			BitrateKbps: p.Config.Reencode.BitrateKbps,
			Channels:    p.Config.Reencode.Channels,
			SampleRate:  p.Config.Reencode.SampleRate,
		}
	}
	ext := ffmpeg.ChunkExtension(spec)

	overlap := p.Config.Chunking.OverlapSecs
	last := len(boundaries) - 2

	chunks := make([]manifest.ChunkRecord, 0, last+1)
	for i := 0; i <= last; i++ {
		nominalStart := boundaries[i]
		nominalEnd := boundaries[i+1]

		start := nominalStart
		if i > 0 {
			start = nominalStart - overlap
			if start < 0 {
				start = 0
			}
		}
		end := nominalEnd
		if i < last {
			end = nominalEnd + overlap
			if end > stats.Duration {
				end = stats.Duration
			}
		}

		outPath := filepath.Join(chunksDir, fmt.Sprintf("chunk_%04d%s", i, ext))
		length := end - start
		if length < 0.01 {
			length = 0.01
		}

		if err := p.Extract(ctx, ffmpeg.ExtractRequest{
			Source:   inputPath,
			Output:   outPath,
			Start:    start,
			Length:   length,
			Reencode: spec,
		}); err != nil {
			return nil, fmt.Errorf("materialize chunk %d: %w", i, err)
		}

		chunks = append(chunks, manifest.ChunkRecord{
			Index:       i,
			File:        outPath,
			Start:       start,
			End:         end,
			OverlapHead: nominalStart - start,
			OverlapTail: end - nominalEnd,
			Status:      manifest.StatusPending,
		})
	}

	return &manifest.Manifest{
		JobID:          jobID,
		Input:          inputPath,
		Stats:          stats,
		Model:          p.Config.Model.Model,
		ResponseFormat: p.Config.Model.ResponseFormat,
		Prompt:         p.Config.Model.Prompt,
		Chunks:         chunks,
	}, nil
}

// layoutBoundaries tiles [0, duration] with consecutive nominal windows.
// The returned slice holds n+1 boundaries for n chunks; the final window
// is truncated to end exactly at duration.
func layoutBoundaries(duration, window float64) []float64 {
	boundaries := []float64{0}
	for t := window; t < duration; t += window {
		boundaries = append(boundaries, t)
	}
	return append(boundaries, duration)
}
