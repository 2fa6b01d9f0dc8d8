// package models defines the data model for the junk mover
package models

import (
	"time"

	"github.com/zmb3/spotify/v2"
)

// User is the authenticated Spotify account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"` // premium, free, etc.
}

// Name returns the display name, falling back to the user ID.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// Playlist is a named, owned, ordered list of tracks.
type Playlist struct {
	ID          spotify.ID
	Name        string
	OwnerID     string
	Description string
	Public      bool
	TrackCount  int
}

// OwnedBy reports whether the playlist belongs to the user with the given ID.
func (p Playlist) OwnedBy(ownerID string) bool {
	return p.OwnerID == ownerID
}

// PlaylistItem references one track within a playlist.
type PlaylistItem struct {
	URI     spotify.URI
	AddedAt time.Time
}
