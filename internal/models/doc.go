// Package models defines the entities the junk mover reads from and writes to Spotify.
//
//   - [User] : the authenticated account, owner of every playlist the mover touches
//   - [Playlist] : a named, owned playlist with a mutable description
//   - [PlaylistItem] : a track reference (URI) plus the instant it was added to a playlist
//
// Values are built from API responses and never mutated locally.
package models
