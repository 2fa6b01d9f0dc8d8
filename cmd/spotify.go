package main

import (
	"context"
	"fmt"

	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/urfave/cli/v3"
)

// Profile exchanges the stored refresh token and prints the current user's profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Require(shared.KeyClientID, shared.KeyClientSecret, shared.KeyRefreshToken); err != nil {
		return err
	}

	srv, err := r.newService(r.logger)
	if err != nil {
		return err
	}

	if _, err := srv.Authenticate(ctx, r.config.Spotify.RefreshToken); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	profile, err := srv.UserProfile(ctx)
	if err != nil {
		return err
	}

	if err := r.writeJSON(profile, true); err != nil {
		return err
	}

	name := profile.DisplayName
	if name == "" {
		name = profile.ID
	}
	r.logger.Info("fetched profile", "user", profile.ID)
	return r.writePlain("Fetched profile for: %s\n", name)
}
