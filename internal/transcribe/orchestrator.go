package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/config"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
)

// Sleeper blocks for d or until ctx is cancelled. Injectable for tests.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Orchestrator runs pending chunks through the transcription service with
// bounded parallelism, per-chunk retry and per-completion checkpointing.
type Orchestrator struct {
	Client          Client
	Parallel        int
	MaxRetries      int
	BackoffBase     time.Duration
	RateLimitPerMin int
	Sleep           Sleeper
}

// NewOrchestrator builds an orchestrator from the model policy.
func NewOrchestrator(client Client, cfg config.ModelConfig) *Orchestrator {
	return &Orchestrator{
		Client:          client,
		Parallel:        cfg.ParallelRequests,
		MaxRetries:      cfg.MaxRetries,
		BackoffBase:     cfg.BackoffBase,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Sleep:           sleepContext,
	}
}

// Run transcribes every pending chunk of the manifest, checkpointing the
// whole manifest to manifestPath after each chunk settles. Chunk failures
// are recorded per record and never abort sibling chunks; Run returns an
// error only for cancellation or checkpoint failures. The model, response
// format and prompt come from the manifest's policy snapshot so a resumed
// run behaves exactly like the original one.
func (o *Orchestrator) Run(ctx context.Context, m *manifest.Manifest, manifestPath string) error {
	pending := m.Pending()
	slog.Info("starting transcription",
		"pending", len(pending),
		"total", len(m.Chunks),
		"parallel", o.Parallel,
		"model", m.Model)

	if len(pending) == 0 {
		return m.Save(manifestPath)
	}

	// One flush in flight at a time; workers mutate disjoint records, so
	// the save is the only cross-chunk contention point.
	var saveMu sync.Mutex
	checkpoint := func() error {
		saveMu.Lock()
		defer saveMu.Unlock()
		return m.Save(manifestPath)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(o.RateLimitPerMin)/60.0), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Parallel)

	for _, idx := range pending {
		rec := &m.Chunks[idx]
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			text, latency, retries, err := o.transcribeChunk(gctx, m, rec)
			rec.Retries = retries
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rec.Status = manifest.StatusError
				rec.Error = err.Error()
				slog.Warn("chunk failed",
					"chunk", fmt.Sprintf("%d/%d", rec.Index+1, len(m.Chunks)),
					"retries", retries,
					"err", err)
			} else {
				rec.Status = manifest.StatusDone
				rec.Text = text
				rec.LatencyMS = latency
				slog.Info("chunk completed",
					"chunk", fmt.Sprintf("%d/%d", rec.Index+1, len(m.Chunks)),
					"latency_ms", latency)
			}

			if cerr := checkpoint(); cerr != nil {
				return fmt.Errorf("checkpoint manifest: %w", cerr)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Persist whatever settled before the interruption.
		if cerr := checkpoint(); cerr != nil {
			slog.Warn("final checkpoint failed", "err", cerr)
		}
		return err
	}

	if failed := m.Failed(); failed > 0 {
		slog.Warn("some chunks failed; transcript will have gaps",
			"failed", failed, "total", len(m.Chunks))
	}
	return checkpoint()
}

// transcribeChunk performs one chunk's full retry sequence inside its
// worker slot. Transient failures back off exponentially
// (base * 2^attempt); permanent failures and exhausted retries end the
// attempt immediately.
func (o *Orchestrator) transcribeChunk(ctx context.Context, m *manifest.Manifest, rec *manifest.ChunkRecord) (string, int64, int, error) {
	req := Request{
		AudioPath:      rec.File,
		Model:          m.Model,
		ResponseFormat: m.ResponseFormat,
		Prompt:         m.Prompt,
	}

	retries := 0
	for attempt := 0; ; attempt++ {
		start := time.Now()
		text, err := o.Client.Transcribe(ctx, req)
		if err == nil {
			return text, time.Since(start).Milliseconds(), retries, nil
		}

		if attempt >= o.MaxRetries || !IsTransient(err) {
			return "", 0, retries, err
		}

		delay := o.BackoffBase * (1 << attempt)
		slog.Warn("transient chunk failure, retrying",
			"chunk", rec.Index,
			"attempt", attempt+1,
			"backoff", delay,
			"err", err)
		if serr := o.Sleep(ctx, delay); serr != nil {
			return "", 0, retries, serr
		}
		retries++
	}
}
