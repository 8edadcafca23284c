package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Silence is one low-energy interval reported by ffmpeg's silencedetect
// filter.
type Silence struct {
	Start float64
	End   float64
}

// Mid returns the midpoint of the interval.
func (s Silence) Mid() float64 {
	return (s.Start + s.End) / 2
}

// DetectSilences scans the file with the silencedetect filter and returns
// the detected intervals in order. A trailing silence_start without a
// matching silence_end is closed at the end of the scan output.
func DetectSilences(ctx context.Context, path string, noiseDB int, minDur float64) ([]Silence, error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-i", path,
		"-af", fmt.Sprintf("silencedetect=noise=%ddB:d=%g", noiseDB, minDur),
		"-f", "null", "-",
	)

	// silencedetect logs to stderr; ffmpeg exits 0 on success.
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg silencedetect failed: %w\n%s", err, string(out))
	}
	return parseSilences(string(out)), nil
}

func parseSilences(log string) []Silence {
	var silences []Silence
	var open *Silence

	for _, line := range strings.Split(log, "\n") {
		if idx := strings.Index(line, "silence_start:"); idx >= 0 {
			v := firstFloat(line[idx+len("silence_start:"):])
			open = &Silence{Start: v}
			continue
		}
		if idx := strings.Index(line, "silence_end:"); idx >= 0 && open != nil {
			open.End = firstFloat(line[idx+len("silence_end:"):])
			silences = append(silences, *open)
			open = nil
		}
	}
	if open != nil {
		open.End = open.Start
		silences = append(silences, *open)
	}
	return silences
}

// firstFloat parses the leading float token of s.
func firstFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			end++
			continue
		}
		break
	}
	v, _ := strconv.ParseFloat(s[:end], 64)
	return v
}
