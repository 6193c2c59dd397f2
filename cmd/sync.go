package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/likesync/internal/formatter"
	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/repositories"
	"github.com/desertthunder/likesync/internal/services"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/state"
	"github.com/desertthunder/likesync/internal/tasks"
	"github.com/desertthunder/likesync/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncRun performs one incremental Spotify → Yandex Music likes sync.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	reportFormat := cmd.String("report")
	if reportFormat != "" && !formatter.ValidFormat(reportFormat) {
		return fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, reportFormat)
	}

	engine, store, cleanup, err := r.buildEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var result *tasks.SyncRunResult
	if cmd.Bool("tui") {
		// Logs go to a file while the TUI owns the terminal.
		fileLogger, err := shared.NewFileLogger("./tmp/likesync-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)

		result, err = ui.Run(ctx, engine)
		if err != nil {
			return err
		}
	} else {
		result, err = r.runWithProgress(ctx, engine)
		if err != nil {
			return err
		}
	}

	r.summarize(result, store)

	if reportFormat != "" {
		outputPath := cmd.String("output")
		if outputPath == "" {
			outputPath = fmt.Sprintf("likesync-report-%s.%s", shared.GenerateID()[:8], reportExtension(reportFormat))
		}
		if err := formatter.WriteReport(result, reportFormat, outputPath); err != nil {
			return err
		}
		r.writePlain("\nReport written to %s\n", outputPath)
	}

	return nil
}

// buildEngine wires authenticated services, the state store, and the match
// cache into a LikesEngine. Credential problems are fatal here, before any
// state is touched.
func (r *Runner) buildEngine(ctx context.Context, cmd *cli.Command) (*tasks.LikesEngine, *state.Store, func(), error) {
	cleanup := func() {}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, nil, cleanup, fmt.Errorf("%w: spotify client credentials not configured", shared.ErrMissingCredentials)
	}
	if creds.AccessToken == "" {
		return nil, nil, cleanup, fmt.Errorf("%w: run `likesync auth spotify` first", shared.ErrNotAuthenticated)
	}
	if r.config.Credentials.Yandex.Token == "" {
		return nil, nil, cleanup, fmt.Errorf("%w: yandex music token not configured", shared.ErrMissingCredentials)
	}

	sourceService := r.spotify
	if sourceService == nil {
		spotifyService, err := services.NewSpotifyService(creds.Map())
		if err != nil {
			return nil, nil, cleanup, err
		}
		if err := spotifyService.Authenticate(ctx, creds.Map()); err != nil {
			return nil, nil, cleanup, err
		}
		sourceService = spotifyService
	}

	yandexService := r.yandex
	if yandexService == nil {
		svc, err := services.NewYandexService(r.config.Credentials.Yandex.Token, "")
		if err != nil {
			return nil, nil, cleanup, err
		}
		yandexService = svc
	}

	statePath := cmd.String("state")
	if statePath == "" {
		statePath = r.config.Sync.StateFile
	}
	store := state.NewStore(statePath)

	var cache tasks.MatchCacher
	if r.config.Database.Path != "" {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.logger.Warn("match cache unavailable", "error", err)
		} else {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
			repo, err := repositories.NewMatchRepository(db)
			if err != nil {
				r.logger.Warn("match cache unavailable", "error", err)
				db.Close()
			} else {
				cache = repo
				cleanup = func() { db.Close() }
			}
		}
	}

	engine := tasks.NewLikesEngine(tasks.EngineOpts{
		Source:        sourceService,
		Target:        yandexService,
		Store:         store,
		Cache:         cache,
		DryRun:        cmd.Bool("dry-run"),
		PageSize:      r.config.Sync.PageSize,
		RetryAttempts: r.config.Sync.RetryAttempts,
		RetryDelay:    time.Duration(r.config.Sync.RetryDelaySeconds) * time.Second,
	})

	return engine, store, cleanup, nil
}

// runWithProgress drives the engine while printing progress to the terminal.
func (r *Runner) runWithProgress(ctx context.Context, engine *tasks.LikesEngine) (*tasks.SyncRunResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSnapshot, tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTrack:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.LikeTrack:
				r.writePlain("   %s\n", update.Message)
			case tasks.SkipTrack:
				r.writePlain("   %s\n", update.Message)
			case tasks.SaveState:
				// Per-item persistence is routine; keep the terminal quiet.
			}
		}
	}()

	result, err := engine.Run(ctx, progressCh)
	close(progressCh)
	<-printerDone

	return result, err
}

// summarize prints the final counters and the tracks needing attention.
// A nil result (cancelled run) prints nothing.
func (r *Runner) summarize(result *tasks.SyncRunResult, store *state.Store) {
	if result == nil {
		return
	}

	title := "Sync Complete!"
	if result.DryRun {
		title = "Dry Run Complete (nothing was changed)"
	}

	r.writePlain("\n")
	r.writePlainHeader(title)

	if result.Total == 0 {
		r.writePlain("No new liked tracks. Nothing to do.\n")
		return
	}

	r.writePlain("New tracks: %d\n", result.Total)
	r.writePlain("Liked: %d\n", result.Liked)
	r.writePlain("Not found: %d\n", result.NotFound)
	r.writePlain("Failed: %d\n", result.Failed)
	if !result.Watermark.IsZero() {
		r.writePlain("Watermark: %s\n", models.FormatTimestamp(result.Watermark))
	}
	if !result.DryRun {
		r.writePlain("State: %s\n", store.Path())
	}

	if result.NotFound > 0 || result.Failed > 0 {
		r.writePlain("\nNeeds attention:\n")
		for _, item := range result.Results {
			switch item.Outcome {
			case tasks.OutcomeNotFound:
				r.writePlain("  - %s (no match on Yandex Music)\n", item.Track.Label())
			case tasks.OutcomeFailed:
				r.writePlain("  - %s (%v)\n", item.Track.Label(), item.Err)
			}
		}
	}
}

func reportExtension(format string) string {
	if format == "markdown" || format == "md" {
		return "md"
	}
	return format
}

// syncCommand runs the incremental likes synchronization
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize liked tracks",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run an incremental Spotify → Yandex Music likes sync",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "state",
						Usage: "Path to the sync state file (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Detect and match tracks without liking or saving state",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show live progress in an interactive terminal UI",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a run report (csv, markdown, or json)",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Report file path (defaults to a generated name)",
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}
