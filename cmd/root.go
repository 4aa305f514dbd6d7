package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mediakit/internal/config"
	"mediakit/internal/models"
	"mediakit/internal/modules/bootstrap"
	"mediakit/internal/modules/browser"
	"mediakit/internal/modules/downloader"
	"mediakit/internal/modules/favicon"
	"mediakit/internal/modules/metadata"
	"mediakit/internal/modules/persistence"
	"mediakit/internal/modules/pipeline"
	"mediakit/internal/modules/report"
	"mediakit/internal/modules/screenshot"
	"mediakit/internal/modules/video"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Exit codes returned by main.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

var delaySeconds int

// launchBrowser is replaced in tests.
var launchBrowser browser.Launcher = browser.LaunchBrowser

var rootCmd = &cobra.Command{
	Use:   "mediakit <url>",
	Short: "Generate a website media kit",
	Long: `Capture screenshots at desktop, tablet and mobile sizes, record a scroll-through
video, fetch the favicon and page metadata, and package everything into a
directory plus a timestamped zip archive.

The output directory is removed and recreated on every run.`,
	Example: `  mediakit https://example.com
  mediakit localhost:3000 --delay 2`,
	Args: cobra.ExactArgs(1),
}

// Execute runs the root command with the given context, configuration and logger.
func Execute(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		// Argument errors above print usage; run errors below do not.
		cmd.SilenceUsage = true
		return run(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, logger)
	}
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps the result of Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func init() {
	rootCmd.Flags().IntVar(&delaySeconds, "delay", 1, "Delay in seconds after the first page load, before screenshots")
	rootCmd.SilenceErrors = true
	pflag.CommandLine.AddFlagSet(rootCmd.Flags())
}

func run(ctx context.Context, out io.Writer, rawURL string, cfg *config.Config, logger *zap.Logger) error {
	rc := bootstrap.New(rawURL, delaySeconds, cfg.OutputDir)
	logger.Info("generating media kit",
		zap.String("url", rc.URL),
		zap.String("run_id", rc.RunID),
		zap.Duration("delay", rc.Delay))

	b, err := launchBrowser(ctx, browser.Options{
		Headless:          cfg.Browser.Headless,
		Install:           cfg.Browser.InstallBrowsers,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("browser release reported errors", zap.Error(err))
		}
	}()

	if err := bootstrap.PrepareOutput(rc.OutputDir); err != nil {
		return err
	}

	fetcher := downloader.New(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)

	p := pipeline.New(logger)
	p.AddStage(screenshot.New(b))
	p.AddStage(video.New(b))
	p.AddStage(favicon.New(fetcher))
	p.AddStage(metadata.New(fetcher))

	results, err := p.Run(ctx, rc)
	if err != nil {
		return err
	}

	if _, err := report.WriteReadme(rc); err != nil {
		return err
	}
	logger.Info("creating zip archive")
	archive, err := persistence.New(rc.OutputDir).Archive(rc.StartedAt)
	if err != nil {
		return err
	}
	logger.Info("archive created", zap.String("archive", archive))

	printSummary(out, rc, archive, results)
	return nil
}

func printSummary(out io.Writer, rc *models.RunContext, archive string, results []pipeline.Result) {
	line := strings.Repeat("-", 50)
	fmt.Fprintln(out, line)
	for _, r := range results {
		mark := "✓"
		if !r.OK() {
			mark = "✗"
		}
		fmt.Fprintf(out, "%s %-12s %s\n", mark, r.Stage, r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(out, line)

	if failed := pipeline.Failed(results); failed > 0 {
		fmt.Fprintf(out, "Media kit generated with %d of %d steps failed\n", failed, len(results))
	} else {
		fmt.Fprintln(out, "Media kit generated successfully!")
	}
	fmt.Fprintf(out, "Folder: %s/\n", rc.OutputDir)
	fmt.Fprintf(out, "Archive: %s\n", archive)
	fmt.Fprintf(out, "Total time: %.1fs\n", time.Since(rc.StartedAt).Seconds())
}
