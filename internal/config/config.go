package config

import (
	"fmt"
	"time"
)

// ModelConfig holds transcription model and API call settings.
type ModelConfig struct {
	Model            string        `yaml:"model"`
	ResponseFormat   string        `yaml:"response_format"`
	Prompt           string        `yaml:"prompt"`
	ParallelRequests int           `yaml:"parallel_requests"`
	MaxRetries       int           `yaml:"max_retries"`
	BackoffBase      time.Duration `yaml:"backoff_base"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	RateLimitPerMin  int           `yaml:"rate_limit_per_min"`
}

// ChunkingConfig holds the audio chunking policy.
type ChunkingConfig struct {
	TargetChunkMB int     `yaml:"target_chunk_mb"`
	MinChunkSecs  int     `yaml:"min_chunk_secs"`
	MaxChunkSecs  int     `yaml:"max_chunk_secs"`
	OverlapSecs   float64 `yaml:"overlap_secs"`
}

// ReencodeConfig controls re-encoding of materialized chunks. Re-encoding
// stabilizes actual chunk byte size against the bitrate-based planning
// estimate.
type ReencodeConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Codec       string `yaml:"codec"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
	Channels    int    `yaml:"channels"`
	SampleRate  int    `yaml:"sample_rate"`
}

// SilenceConfig tunes silence detection for the silence-aware segmenter.
type SilenceConfig struct {
	MinSilenceDB  int     `yaml:"min_silence_db"`
	MinSilenceDur float64 `yaml:"min_silence_dur"`
	SearchRadius  float64 `yaml:"search_radius"`
}

// OutputConfig selects which transcript artifacts get written.
type OutputConfig struct {
	WriteTXT  bool `yaml:"write_txt"`
	WriteJSON bool `yaml:"write_json"`
	WriteSRT  bool `yaml:"write_srt"`
	WriteVTT  bool `yaml:"write_vtt"`
}

// Config is the full pipeline configuration.
type Config struct {
	Model     ModelConfig    `yaml:"model"`
	Chunking  ChunkingConfig `yaml:"chunking"`
	Reencode  ReencodeConfig `yaml:"reencode"`
	Silence   SilenceConfig  `yaml:"silence"`
	Outputs   OutputConfig   `yaml:"outputs"`
	Segmenter string         `yaml:"segmenter"` // "fixed" or "silence"
	WorkDir   string         `yaml:"work_dir"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Model:            "gpt-4o-transcribe",
			ResponseFormat:   "json",
			Prompt:           "",
			ParallelRequests: 3,
			MaxRetries:       3,
			BackoffBase:      800 * time.Millisecond,
			RequestTimeout:   5 * time.Minute,
			RateLimitPerMin:  30,
		},
		Chunking: ChunkingConfig{
			TargetChunkMB: 16,
			MinChunkSecs:  60,
			MaxChunkSecs:  900,
			OverlapSecs:   3.0,
		},
		Reencode: ReencodeConfig{
			Enabled:     true,
			Codec:       "aac",
			BitrateKbps: 64,
			Channels:    1,
			SampleRate:  16000,
		},
		Silence: SilenceConfig{
			MinSilenceDB:  -35,
			MinSilenceDur: 0.6,
			SearchRadius:  15.0,
		},
		Outputs: OutputConfig{
			WriteTXT:  true,
			WriteJSON: true,
			WriteSRT:  true,
			WriteVTT:  false,
		},
		Segmenter: "fixed",
		WorkDir:   "outputs",
	}
}

// Validate checks all settings against their allowed ranges.
func (c *Config) Validate() error {
	switch c.Model.Model {
	case "gpt-4o-transcribe", "gpt-4o-mini-transcribe", "whisper-1":
	default:
		return fmt.Errorf("invalid model %q", c.Model.Model)
	}
	if c.Model.ResponseFormat != "json" && c.Model.ResponseFormat != "text" {
		return fmt.Errorf("invalid response_format %q (must be json or text)", c.Model.ResponseFormat)
	}
	if c.Model.ParallelRequests < 1 || c.Model.ParallelRequests > 10 {
		return fmt.Errorf("parallel_requests must be between 1 and 10, got %d", c.Model.ParallelRequests)
	}
	if c.Model.MaxRetries < 0 || c.Model.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 0 and 10, got %d", c.Model.MaxRetries)
	}
	if c.Model.BackoffBase < 100*time.Millisecond || c.Model.BackoffBase > 5*time.Second {
		return fmt.Errorf("backoff_base must be between 100ms and 5s, got %s", c.Model.BackoffBase)
	}
	if c.Model.RateLimitPerMin < 1 {
		return fmt.Errorf("rate_limit_per_min must be positive, got %d", c.Model.RateLimitPerMin)
	}

	if c.Chunking.TargetChunkMB < 1 || c.Chunking.TargetChunkMB > 100 {
		return fmt.Errorf("target_chunk_mb must be between 1 and 100, got %d", c.Chunking.TargetChunkMB)
	}
	if c.Chunking.MinChunkSecs < 1 {
		return fmt.Errorf("min_chunk_secs must be positive, got %d", c.Chunking.MinChunkSecs)
	}
	if c.Chunking.MaxChunkSecs < c.Chunking.MinChunkSecs || c.Chunking.MaxChunkSecs > 3600 {
		return fmt.Errorf("max_chunk_secs must be between %d and 3600, got %d",
			c.Chunking.MinChunkSecs, c.Chunking.MaxChunkSecs)
	}
	if c.Chunking.OverlapSecs < 0 || c.Chunking.OverlapSecs > 30 {
		return fmt.Errorf("overlap_secs must be between 0 and 30, got %g", c.Chunking.OverlapSecs)
	}

	if c.Reencode.Enabled {
		switch c.Reencode.Codec {
		case "aac", "libfdk_aac", "mp3", "wav":
		default:
			return fmt.Errorf("invalid codec %q", c.Reencode.Codec)
		}
		if c.Reencode.BitrateKbps < 32 || c.Reencode.BitrateKbps > 320 {
			return fmt.Errorf("bitrate_kbps must be between 32 and 320, got %d", c.Reencode.BitrateKbps)
		}
		if c.Reencode.Channels < 1 || c.Reencode.Channels > 2 {
			return fmt.Errorf("channels must be 1 or 2, got %d", c.Reencode.Channels)
		}
		switch c.Reencode.SampleRate {
		case 8000, 16000, 22050, 44100, 48000:
		default:
			return fmt.Errorf("invalid sample_rate %d", c.Reencode.SampleRate)
		}
	}

	if c.Silence.MinSilenceDB > -10 || c.Silence.MinSilenceDB < -60 {
		return fmt.Errorf("min_silence_db must be between -60 and -10, got %d", c.Silence.MinSilenceDB)
	}
	if c.Silence.MinSilenceDur < 0.1 || c.Silence.MinSilenceDur > 5.0 {
		return fmt.Errorf("min_silence_dur must be between 0.1 and 5.0, got %g", c.Silence.MinSilenceDur)
	}
	if c.Silence.SearchRadius <= 0 {
		return fmt.Errorf("search_radius must be positive, got %g", c.Silence.SearchRadius)
	}

	if c.Segmenter != "fixed" && c.Segmenter != "silence" {
		return fmt.Errorf("invalid segmenter %q (must be fixed or silence)", c.Segmenter)
	}
	if c.WorkDir == "" {
		return fmt.Errorf("work_dir cannot be empty")
	}
	return nil
}
