package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/repositories"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/state"
	"github.com/urfave/cli/v3"
)

// StateShow prints the persisted sync state.
func (r *Runner) StateShow(ctx context.Context, cmd *cli.Command) error {
	store := r.stateStore(cmd)
	st := store.Load()

	watermark := ""
	if !st.Watermark.IsZero() {
		watermark = models.FormatTimestamp(st.Watermark)
	}

	if cmd.Bool("json") {
		ids := make([]string, 0, len(st.ProcessedIDs))
		for id := range st.ProcessedIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		return r.writeJSON(map[string]any{
			"path":            store.Path(),
			"processed_count": len(ids),
			"processed_ids":   ids,
			"watermark":       watermark,
		}, true)
	}

	r.writePlain("State file: %s\n", store.Path())
	r.writePlain("Processed tracks: %d\n", len(st.ProcessedIDs))
	if watermark != "" {
		r.writePlain("Watermark: %s\n", watermark)
	} else {
		r.writePlain("Watermark: (none, next run imports the full library)\n")
	}

	return nil
}

// StateReset deletes the persisted sync state.
func (r *Runner) StateReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		return fmt.Errorf("%w: resetting re-imports the full library on the next run; pass --force to confirm", shared.ErrMissingArgument)
	}

	store := r.stateStore(cmd)
	if err := store.Reset(); err != nil {
		return err
	}

	r.logger.Info("sync state reset", "path", store.Path())
	return r.writePlain("✓ Sync state removed: %s\n", store.Path())
}

// StateMatches lists the cached Spotify → Yandex Music pairings.
func (r *Runner) StateMatches(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: no match cache database configured", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open match cache: %w", err)
	}
	defer db.Close()

	repo, err := repositories.NewMatchRepository(db)
	if err != nil {
		return err
	}

	matches, err := repo.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, true)
	}

	if len(matches) == 0 {
		return r.writePlain("No cached matches.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Cached Matches (%d)", len(matches)))
	for i, match := range matches {
		r.writePlain("%d. %s\n", i+1, match.SourceLabel)
		r.writePlain("   → %s (%s:%s)\n", match.MatchedLabel, match.YandexTrack, match.YandexAlbum)
	}

	return nil
}

func (r *Runner) stateStore(cmd *cli.Command) *state.Store {
	statePath := cmd.String("state")
	if statePath == "" {
		statePath = r.config.Sync.StateFile
	}
	return state.NewStore(statePath)
}

// stateCommand inspects and manages persisted sync state
func stateCommand(r *Runner) *cli.Command {
	stateFlag := &cli.StringFlag{
		Name:  "state",
		Usage: "Path to the sync state file (overrides config)",
	}

	return &cli.Command{
		Name:  "state",
		Usage: "Inspect and manage the persisted sync state",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the processed set and watermark",
				Flags: []cli.Flag{
					stateFlag,
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
				},
				Action: r.StateShow,
			},
			{
				Name:  "reset",
				Usage: "Delete the state file (next run re-imports everything)",
				Flags: []cli.Flag{
					stateFlag,
					&cli.BoolFlag{Name: "force", Usage: "Confirm the reset"},
				},
				Action: r.StateReset,
			},
			{
				Name:  "matches",
				Usage: "List cached Spotify → Yandex Music pairings",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
				},
				Action: r.StateMatches,
			},
		},
	}
}
