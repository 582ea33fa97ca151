package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/transllm/internal/config"
	"github.com/dshills/transllm/internal/runner"
	"github.com/dshills/transllm/internal/storage"
	"github.com/dshills/transllm/internal/translator"
)

var (
	runProviderFlag     string
	runModelFlag        string
	runSourceLangFlag   string
	runTargetLangFlag   string
	runChunkLinesFlag   int
	runConcurrencyFlag  int
	runToleranceFlag    int
	runInstructionsFlag string
	runOutFlag          string
	runCacheDBFlag      string
)

var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <project-path>",
		Short: "Translate a project tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			backend, closeAll, err := buildBackend(cfg)
			if err != nil {
				return err
			}
			defer closeAll()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := runner.New(backend, cfg)
			progress := func(done, total int) {
				fmt.Fprintf(os.Stderr, "\rtranslated %d/%d chunks", done, total)
			}

			stats, agg, runErr := r.Run(ctx, args[0], runOutFlag, progress)
			fmt.Fprintln(os.Stderr)

			if stats == nil {
				// The run never started (unreadable project path or a
				// file that failed to chunk); nothing to report.
				return runErr
			}

			agg.WriteTable(cmd.OutOrStdout())
			printStats(stats)

			if runErr != nil {
				color.Yellow("run cancelled: %v", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&runProviderFlag, "provider", "p", "", "translation provider (openai, groq, identity)")
	cmd.Flags().StringVarP(&runModelFlag, "model", "m", "", "model name")
	cmd.Flags().StringVar(&runSourceLangFlag, "source-lang", "", "source language")
	cmd.Flags().StringVar(&runTargetLangFlag, "target-lang", "", "target language")
	cmd.Flags().IntVar(&runChunkLinesFlag, "chunk-size", 0, "chunk size in lines")
	cmd.Flags().IntVarP(&runConcurrencyFlag, "concurrency", "c", 0, "max concurrent backend calls")
	cmd.Flags().IntVar(&runToleranceFlag, "tolerance", -1, "line count mismatch tolerance")
	cmd.Flags().StringVar(&runInstructionsFlag, "instructions", "", "extra instructions forwarded to the backend")
	cmd.Flags().StringVarP(&runOutFlag, "out", "o", "", "output directory (default <project>_translated)")
	cmd.Flags().StringVar(&runCacheDBFlag, "cache-db", "", "persistent translation cache database")

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// loadConfig merges the config file with CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag, true)
	if err != nil {
		return nil, err
	}

	if runProviderFlag != "" {
		cfg.Provider = runProviderFlag
	}
	if runModelFlag != "" {
		cfg.Model = runModelFlag
	}
	if runSourceLangFlag != "" {
		cfg.SourceLang = runSourceLangFlag
	}
	if runTargetLangFlag != "" {
		cfg.TargetLang = runTargetLangFlag
	}
	if runChunkLinesFlag > 0 {
		cfg.ChunkLines = runChunkLinesFlag
	}
	if runConcurrencyFlag > 0 {
		cfg.MaxConcurrency = runConcurrencyFlag
	}
	if runToleranceFlag >= 0 {
		cfg.LineTolerance = runToleranceFlag
	}
	if runInstructionsFlag != "" {
		cfg.Instructions = runInstructionsFlag
	}
	if runCacheDBFlag != "" {
		cfg.Cache.Path = runCacheDBFlag
	}

	if cfg.Provider == "" {
		cfg.Provider = translator.DetectProvider()
	}

	return cfg, cfg.Validate()
}

// buildBackend assembles the backend with its caching layers.
func buildBackend(cfg *config.Config) (translator.Backend, func(), error) {
	var store *storage.SQLiteStore
	tcfg := translator.Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		CacheSize: cfg.Cache.Size,
	}

	if cfg.Cache.Path != "" {
		var err error
		store, err = storage.NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache db: %w", err)
		}
		tcfg.Store = store
		if tcfg.CacheSize == 0 {
			tcfg.CacheSize = translator.DefaultCacheSize
		}
	}

	backend, err := translator.New(tcfg)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}

	closeAll := func() {
		_ = backend.Close()
		if store != nil {
			_ = store.Close()
		}
	}
	return backend, closeAll, nil
}

func printStats(stats *runner.Statistics) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	green.Printf("translated %d/%d files (%d chunks, %s)\n",
		stats.TranslatedFiles, stats.TotalFiles, stats.TotalChunks, stats.Duration.Round(time.Millisecond))
	if stats.CopiedFiles > 0 {
		fmt.Printf("copied %d non-translatable files\n", stats.CopiedFiles)
	}
	if stats.ExcludedFiles > 0 || stats.FailedChunks > 0 {
		red.Printf("%d files excluded, %d chunks fell back to original text\n",
			stats.ExcludedFiles, stats.FailedChunks)
	}
	for _, msg := range stats.ErrorMessages {
		red.Printf("  %s\n", msg)
	}
}
