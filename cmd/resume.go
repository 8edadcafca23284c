package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pmpmtj/Transcriber-Pipeline/internal/manifest"
	"github.com/pmpmtj/Transcriber-Pipeline/internal/transcribe"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <manifest-file>",
	Short: "Resume an interrupted transcription run",
	Long: `Resume a run from its checkpointed manifest. Only chunks still marked
pending are transcribed; completed and failed chunks are left untouched
and nothing is re-planned or re-materialized. The model, response format
and prompt recorded in the manifest are reused.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	resumeCmd.Flags().IntVarP(&parallel, "parallel", "j", 0, "concurrent transcription requests")
	resumeCmd.Flags().IntVar(&maxRetries, "max-retries", -1, "max retries per chunk on transient errors")
	resumeCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "API requests per minute")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	manifestPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	slog.Info("loaded manifest",
		"job", m.JobID,
		"chunks", len(m.Chunks),
		"pending", len(m.Pending()),
		"failed", m.Failed())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := transcribe.NewOpenAIClient(apiKey, cfg.Model.RequestTimeout)
	if err := transcribe.NewOrchestrator(client, cfg.Model).Run(ctx, m, manifestPath); err != nil {
		return fmt.Errorf("transcribe chunks: %w", err)
	}

	outDir := filepath.Dir(manifestPath)
	return stitchAndWrite(m, outDir, cfg.Outputs)
}
