// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"
	"iter"

	"github.com/liverslices/spotify-automation/internal/models"
	"github.com/zmb3/spotify/v2"
)

// Page sizes and batch ceilings enforced on the caller side.
const (
	PlaylistPageSize = 50
	ItemPageSize     = 100
	MaxBatchSize     = 100
)

// Service defines the playlist operations the junk mover drives.
//
// Enumerations are lazy, single-pass sequences: ranging again re-issues every request from the first page.
type Service interface {
	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Playlists enumerates every playlist the authenticated user can see.
	Playlists(ctx context.Context) iter.Seq2[models.Playlist, error]

	// PlaylistItems enumerates the track references of a playlist in API order.
	PlaylistItems(ctx context.Context, playlistID spotify.ID) iter.Seq2[models.PlaylistItem, error]

	// CreatePlaylist creates a private playlist owned by ownerID.
	CreatePlaylist(ctx context.Context, ownerID, name, description string) (*models.Playlist, error)

	// AddItems appends uris to a playlist, in sequential batches of at most [MaxBatchSize].
	AddItems(ctx context.Context, playlistID spotify.ID, uris []spotify.URI) error

	// RemoveItems removes every occurrence of uris from a playlist, in sequential batches of at most [MaxBatchSize].
	RemoveItems(ctx context.Context, playlistID spotify.ID, uris []spotify.URI) error

	// UpdateDescription overwrites a playlist's description.
	UpdateDescription(ctx context.Context, playlistID spotify.ID, description string) error
}
