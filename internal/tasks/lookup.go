package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/liverslices/spotify-automation/internal/models"
	"github.com/liverslices/spotify-automation/internal/services"
	"github.com/liverslices/spotify-automation/internal/shared"
)

// FindPlaylist scans every playlist for an exact name and owner match.
//
// The first match wins. Further matches are logged as a warning. A miss is a
// [shared.KindDomain] error matching [shared.ErrPlaylistNotFound].
func FindPlaylist(ctx context.Context, svc services.Service, name, ownerID string, logger *log.Logger) (*models.Playlist, error) {
	var found *models.Playlist
	var ids []string

	for p, err := range svc.Playlists(ctx) {
		if err != nil {
			return nil, err
		}
		if p.Name != name || !p.OwnedBy(ownerID) {
			continue
		}
		ids = append(ids, string(p.ID))
		if found == nil {
			found = &p
		}
	}

	if found == nil {
		return nil, shared.NewError(shared.KindDomain, fmt.Sprintf("no playlist named %q owned by %s", name, ownerID), 0, nil, nil)
	}
	if len(ids) > 1 && logger != nil {
		logger.Warn("duplicate playlist names, using the first", "name", name, "ids", ids)
	}

	return found, nil
}

// EnsurePlaylist returns the playlist named name owned by ownerID, creating a
// private one with description when none exists. created reports which happened.
func EnsurePlaylist(ctx context.Context, svc services.Service, name, ownerID, description string, logger *log.Logger) (p *models.Playlist, created bool, err error) {
	p, err = FindPlaylist(ctx, svc, name, ownerID, logger)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return nil, false, err
	}

	p, err = svc.CreatePlaylist(ctx, ownerID, name, description)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
