package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/config"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/ffmpeg"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/output"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/planner"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/stitch"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <input-file>",
	Short: "Transcribe an audio/video file into text and captions",
	Long: `Transcribe an audio or video file: probe its statistics, plan and
materialize overlapping chunks with ffmpeg, transcribe every chunk through
the OpenAI API with bounded parallelism, then stitch the results into a
deduplicated transcript with caption tracks.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var (
	configFile string
	workDir    string
	model      string
	segmenter  string
	prompt     string
	parallel   int
	maxRetries int
	rateLimit  int
)

func init() {
	transcribeCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	transcribeCmd.Flags().StringVarP(&workDir, "work-dir", "w", "", "working directory for job outputs (default: outputs/)")
	transcribeCmd.Flags().StringVarP(&model, "model", "m", "", "transcription model (gpt-4o-transcribe, gpt-4o-mini-transcribe, whisper-1)")
	transcribeCmd.Flags().StringVar(&segmenter, "segmenter", "", "segmentation strategy: fixed or silence")
	transcribeCmd.Flags().StringVar(&prompt, "prompt", "", "domain-vocabulary hint passed to the transcription model")
	transcribeCmd.Flags().IntVarP(&parallel, "parallel", "j", 0, "concurrent transcription requests")
	transcribeCmd.Flags().IntVar(&maxRetries, "max-retries", -1, "max retries per chunk on transient errors")
	transcribeCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "API requests per minute")

	rootCmd.AddCommand(transcribeCmd)
}

// loadConfig resolves the effective configuration: defaults, then the
// optional YAML file, then CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	if model != "" {
		cfg.Model.Model = model
	}
	if segmenter != "" {
		cfg.Segmenter = segmenter
	}
	if prompt != "" {
		cfg.Model.Prompt = prompt
	}
	if parallel > 0 {
		cfg.Model.ParallelRequests = parallel
	}
	if maxRetries >= 0 {
		cfg.Model.MaxRetries = maxRetries
	}
	if rateLimit > 0 {
		cfg.Model.RateLimitPerMin = rateLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	validExts := map[string]bool{
		".mp3": true, ".m4a": true, ".wav": true, ".flac": true,
		".ogg": true, ".aac": true, ".mp4": true, ".mov": true,
		".mkv": true, ".avi": true, ".flv": true, ".webm": true,
	}
	if !validExts[ext] {
		return fmt.Errorf("unsupported file type: %s", ext)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	if !ffmpeg.Available() {
		return fmt.Errorf("ffmpeg not found on PATH")
	}

	// Setup signal handling for graceful cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobID := uuid.NewString()
	outDir := filepath.Join(cfg.WorkDir, jobID)
	chunksDir := filepath.Join(outDir, "chunks")
	if err := os.MkdirAll(chunksDir, 0755); err != nil {
		return fmt.Errorf("create job directory: %w", err)
	}

	slog.Info("processing file", "input", filepath.Base(inputPath), "job", jobID)

	// Extract audio from video containers before planning.
	workingPath := inputPath
	if ffmpeg.IsVideoExtension(ext) {
		audioPath := filepath.Join(outDir, "audio.m4a")
		slog.Info("extracting audio from video")
		if err := ffmpeg.ExtractAudio(ctx, inputPath, audioPath); err != nil {
			return fmt.Errorf("extract audio: %w", err)
		}
		workingPath = audioPath
	}

	stats, err := ffmpeg.Probe(ctx, workingPath)
	if err != nil {
		return fmt.Errorf("probe media: %w", err)
	}
	slog.Info("probed media",
		"duration_sec", fmt.Sprintf("%.1f", stats.Duration),
		"bit_rate", stats.BitRate,
		"sample_rate", stats.SampleRate,
		"channels", stats.Channels)

	if err := cfg.SaveEffective(outDir); err != nil {
		slog.Warn("failed to save effective config", "err", err)
	}

	m, err := planner.New(cfg).Plan(ctx, jobID, workingPath, stats, chunksDir)
	if err != nil {
		return fmt.Errorf("plan chunks: %w", err)
	}
	manifestPath := filepath.Join(outDir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	client := transcribe.NewOpenAIClient(apiKey, cfg.Model.RequestTimeout)
	if err := transcribe.NewOrchestrator(client, cfg.Model).Run(ctx, m, manifestPath); err != nil {
		return fmt.Errorf("transcribe chunks: %w", err)
	}

	return stitchAndWrite(m, outDir, cfg.Outputs)
}

// stitchAndWrite merges the manifest's chunk texts and writes the enabled
// artifacts into outDir.
func stitchAndWrite(m *manifest.Manifest, outDir string, outputs config.OutputConfig) error {
	fullText, merged := stitch.New().Merge(m)
	if fullText == "" {
		return fmt.Errorf("empty transcript: no chunk produced text")
	}

	files, err := output.WriteAll(outDir, m, fullText, merged, outputs)
	if err != nil {
		return err
	}

	if failed := m.Failed(); failed > 0 {
		slog.Warn("transcript has gaps from failed chunks",
			"failed", failed, "total", len(m.Chunks))
	}
	if !quiet {
		slog.Info("transcription complete",
			"output_dir", outDir,
			"files", strings.Join(files, ", "))
	}
	return nil
}
