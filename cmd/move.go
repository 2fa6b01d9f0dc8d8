package main

import (
	"context"
	"fmt"

	"github.com/liverslices/spotify-automation/internal/formatter"
	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/liverslices/spotify-automation/internal/tasks"
	"github.com/liverslices/spotify-automation/internal/ui"
	"github.com/urfave/cli/v3"
)

// Move runs the junk mover once against the configured source playlist.
func (r *Runner) Move(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	switch format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("%w: unknown format %q, use text, json or csv", shared.ErrInvalidInput, format)
	}

	if err := r.config.Require(
		shared.KeyClientID, shared.KeyClientSecret, shared.KeyRefreshToken,
		shared.KeySourcePlaylist, shared.KeyDurationDays, shared.KeyRateLimit,
	); err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "run", shared.GenerateID()[:8])
	dryRun := cmd.Bool("dry-run")

	srv, err := r.newService(logger)
	if err != nil {
		return err
	}
	if _, err := srv.Authenticate(ctx, r.config.Spotify.RefreshToken); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	logger.Info("starting run", "source", r.config.Mover.SourcePlaylist, "days", r.config.DurationDays(), "dry_run", dryRun)

	mover := tasks.NewMover(srv, tasks.MoverOpts{
		Source:       r.config.Mover.SourcePlaylist,
		DurationDays: r.config.DurationDays(),
		DryRun:       dryRun,
		Now:          r.now,
		Logger:       logger,
	})

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if format == "text" {
				r.writePlain("→ %s\n", update.Message)
			}
		}
	}()

	result, err := mover.Run(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if result != nil && len(result.Buckets) > 0 {
			logger.Warn("run aborted after partial progress", "buckets_done", len(result.Buckets), "moved", result.Total)
		}
		return err
	}

	switch format {
	case "json":
		return r.writeJSON(result, true)
	case "csv":
		data, err := formatter.ReportToCSV(result.Rows())
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	r.writePlain("\n%s\n", ui.Styles.Title("Junk Mover"))
	r.writePlain("%s", formatter.ReportToText(result.Source, result.RunAt, result.Cutoff, result.Rows(), result.DryRun))
	return nil
}
