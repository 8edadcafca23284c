package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// AudioStats holds the media properties the planner needs.
type AudioStats struct {
	Duration   float64 `json:"duration"`    // seconds
	BitRate    int     `json:"bit_rate"`    // bits per second
	SampleRate int     `json:"sample_rate"` // Hz
	Channels   int     `json:"channels"`
	FormatName string  `json:"format_name,omitempty"`
	SizeBytes  int64   `json:"size_bytes,omitempty"`
}

// Available returns true if ffmpeg is on the PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// probeStream mirrors one entry of ffprobe's streams array.
type probeStream struct {
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// probeOutput mirrors ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
		FormatName string `json:"format_name"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

// Probe uses ffprobe to read duration, bitrate, sample rate and channel
// count from the first audio stream, falling back to format-level values.
func Probe(ctx context.Context, path string) (*AudioStats, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (*AudioStats, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	var audio *probeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "audio" {
			audio = &probe.Streams[i]
			break
		}
	}

	stats := &AudioStats{FormatName: probe.Format.FormatName}

	stats.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	if stats.Duration == 0 && audio != nil {
		stats.Duration, _ = strconv.ParseFloat(audio.Duration, 64)
	}

	stats.BitRate, _ = strconv.Atoi(probe.Format.BitRate)
	if stats.BitRate == 0 && audio != nil {
		stats.BitRate, _ = strconv.Atoi(audio.BitRate)
	}
	if stats.BitRate == 0 {
		stats.BitRate = 128000
	}

	if audio != nil {
		stats.SampleRate, _ = strconv.Atoi(audio.SampleRate)
		stats.Channels = audio.Channels
	}
	if stats.SampleRate == 0 {
		stats.SampleRate = 44100
	}
	if stats.Channels == 0 {
		stats.Channels = 2
	}

	stats.SizeBytes, _ = strconv.ParseInt(probe.Format.Size, 10, 64)
	return stats, nil
}

// ReencodeSpec describes how an extracted range should be re-encoded.
// A nil spec means stream copy.
type ReencodeSpec struct {
	Codec       string
	BitrateKbps int
	Channels    int
	SampleRate  int
}

// ExtractRequest asks for [Start, Start+Length] of Source to be written
// to Output.
type ExtractRequest struct {
	Source   string
	Output   string
	Start    float64 // seconds
	Length   float64 // seconds
	Reencode *ReencodeSpec
}

// Extract materializes one time range of the source into a new audio file.
func Extract(ctx context.Context, req ExtractRequest) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", req.Start),
		"-i", req.Source,
		"-t", fmt.Sprintf("%.3f", req.Length),
		"-vn",
	}
	if req.Reencode != nil {
		args = append(args,
			"-ac", strconv.Itoa(req.Reencode.Channels),
			"-ar", strconv.Itoa(req.Reencode.SampleRate),
			"-b:a", fmt.Sprintf("%dk", req.Reencode.BitrateKbps),
			"-c:a", req.Reencode.Codec,
		)
	} else {
		args = append(args, "-c:a", "copy")
	}
	args = append(args, req.Output)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract failed: %w\n%s", err, string(out))
	}
	return nil
}

// ChunkExtension returns the output file extension for a given re-encode
// spec: .m4a for aac-family codecs and stream copy, .wav otherwise.
func ChunkExtension(spec *ReencodeSpec) string {
	if spec == nil {
		return ".m4a"
	}
	switch strings.ToLower(spec.Codec) {
	case "aac", "libfdk_aac":
		return ".m4a"
	default:
		return ".wav"
	}
}

// ExtractAudio extracts the audio stream from a video file using ffmpeg -vn -c:a copy.
func ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	slog.Info("extracting audio", "input", filepath.Base(videoPath), "output", filepath.Base(outputPath))

	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-i", videoPath,
		"-vn", "-c:a", "copy", "-y",
		outputPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract audio failed: %w\n%s", err, string(out))
	}
	return nil
}

// IsVideoExtension returns true for common video file extensions.
func IsVideoExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp4", ".mkv", ".mov", ".avi", ".flv", ".webm":
		return true
	}
	return false
}
