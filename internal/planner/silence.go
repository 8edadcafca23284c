package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/ffmpeg"
)

// snapToSilences moves each interior boundary to the midpoint of the
// nearest detected silence within the configured search radius. Boundaries
// only move, they are never added or removed, so the chunks still tile
// [0, duration] with no gaps. A snap is rejected when it would push either
// adjacent window outside its duration caps.
func (p *Planner) snapToSilences(ctx context.Context, path string, boundaries []float64, duration float64) ([]float64, error) {
	silences, err := p.Scan(ctx, path, p.Config.Silence.MinSilenceDB, p.Config.Silence.MinSilenceDur)
	if err != nil {
		return nil, fmt.Errorf("scan silences: %w", err)
	}
	if len(silences) == 0 {
		slog.Debug("no silences detected, keeping fixed boundaries")
		return boundaries, nil
	}

	snapped := make([]float64, len(boundaries))
	copy(snapped, boundaries)

	radius := p.Config.Silence.SearchRadius
	maxWin := float64(p.Config.Chunking.MaxChunkSecs)

	for i := 1; i < len(snapped)-1; i++ {
		cand, ok := nearestSilenceMid(silences, snapped[i], radius)
		if !ok {
			continue
		}
		left := cand - snapped[i-1]
		right := snapped[i+1] - cand
		if left < 1 || right < 1 || left > maxWin || right > maxWin {
			continue
		}
		slog.Debug("snapped boundary to silence",
			"boundary", i,
			"from", fmt.Sprintf("%.2f", snapped[i]),
			"to", fmt.Sprintf("%.2f", cand))
		snapped[i] = cand
	}
	return snapped, nil
}

// nearestSilenceMid returns the silence midpoint closest to t, if one
// lies within radius seconds.
func nearestSilenceMid(silences []ffmpeg.Silence, t, radius float64) (float64, bool) {
	best := 0.0
	bestDist := math.Inf(1)
	for _, s := range silences {
		d := math.Abs(s.Mid() - t)
		if d < bestDist {
			bestDist = d
			best = s.Mid()
		}
	}
	if bestDist > radius {
		return 0, false
	}
	return best, true
}
