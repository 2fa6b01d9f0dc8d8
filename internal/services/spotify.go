// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/liverslices/spotify-automation/internal/models"
	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"
	defaultTimeout = 30 * time.Second
)

// DefaultScopes are requested during token acquisition; the mover needs to read and modify private playlists.
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"display_name"`
	Email        string            `json:"email,omitempty"`
	Country      string            `json:"country,omitempty"`
	Product      string            `json:"product,omitempty"` // premium, free, etc.
	URI          string            `json:"uri,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	Followers    followers         `json:"followers"`
	Images       []SpotifyImage    `json:"images,omitempty"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

func (p SpotifySimplePlaylist) model() models.Playlist {
	return models.Playlist{
		ID:          spotify.ID(p.ID),
		Name:        p.Name,
		OwnerID:     p.Owner.ID,
		Description: p.Description,
		Public:      p.Public,
		TrackCount:  p.Tracks.Total,
	}
}

// SpotifyPlaylistItem represents a track within a playlist context.
//
// Track is nil for items whose track was removed from the catalogue.
type SpotifyPlaylistItem struct {
	AddedAt string `json:"added_at"`
	Track   *struct {
		URI string `json:"uri"`
	} `json:"track"`
}

// page is the paging object wrapping every list response.
type page[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

type trackURI struct {
	URI spotify.URI `json:"uri"`
}

// SpotifyOpts configures a [SpotifyService]. Empty endpoints fall back to Spotify's production URLs.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	BaseURL      string
	RateLimit    float64 // requests per second, <= 0 disables pacing
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// SpotifyService implements the [Service] interface for Spotify API interactions.
// Uses [oauth2] for authentication and paces every request with a [rate.Limiter].
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, shared.NewError(shared.KindConfig, "missing client_id in credentials", 0, nil, nil)
	}
	if opts.ClientSecret == "" {
		return nil, shared.NewError(shared.KindConfig, "missing client_secret in credentials", 0, nil, nil)
	}

	if opts.RedirectURI == "" {
		opts.RedirectURI = shared.DefaultRedirectURI
	}
	if opts.Scopes == nil {
		opts.Scopes = DefaultScopes
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyauth.AuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyauth.TokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       opts.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   opts.AuthURL,
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
	}, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// body is JSON-encoded when non-nil; result is decoded from any non-empty response body.
func (s *SpotifyService) doRequest(ctx context.Context, op, method, endpoint string, query url.Values, body, result any) error {
	if s.token == "" {
		return shared.NewError(shared.KindAuth, op, 0, nil, fmt.Errorf("not authenticated: call Authenticate first"))
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return shared.NewError(shared.KindNetwork, op, 0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewError(shared.KindNetwork, op, resp.StatusCode, nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.NewError(shared.KindAPI, op, resp.StatusCode, data, nil)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return shared.NewError(shared.KindAPI, op+": non-JSON body", resp.StatusCode, data, err)
		}
	}

	return nil
}

// paginate lazily walks a limit/offset paged endpoint until the page's next link is null.
//
// The first request error is yielded once and ends the sequence.
func paginate[T any](ctx context.Context, s *SpotifyService, op, endpoint string, limit int, extra url.Values) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		offset := 0
		for {
			query := url.Values{}
			for k, v := range extra {
				query[k] = v
			}
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))

			var p page[T]
			if err := s.doRequest(ctx, op, http.MethodGet, endpoint, query, nil, &p); err != nil {
				var zero T
				yield(zero, err)
				return
			}

			for _, item := range p.Items {
				if !yield(item, nil) {
					return
				}
			}

			if p.Next == nil || *p.Next == "" || len(p.Items) == 0 {
				return
			}
			offset += limit
		}
	}
}

// UserProfile retrieves the current authenticated user's full profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "fetch profile", http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser retrieves the authenticated user.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
	}, nil
}

// Playlists enumerates the current user's playlists, [PlaylistPageSize] per request.
func (s *SpotifyService) Playlists(ctx context.Context) iter.Seq2[models.Playlist, error] {
	return func(yield func(models.Playlist, error) bool) {
		for p, err := range paginate[SpotifySimplePlaylist](ctx, s, "list playlists", "/me/playlists", PlaylistPageSize, nil) {
			if err != nil {
				yield(models.Playlist{}, err)
				return
			}
			if !yield(p.model(), nil) {
				return
			}
		}
	}
}

// PlaylistItems enumerates a playlist's tracks, [ItemPageSize] per request.
//
// Items without a track URI or an added_at timestamp are skipped.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID spotify.ID) iter.Seq2[models.PlaylistItem, error] {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(string(playlistID)))
	fields := url.Values{"fields": {"items(added_at,track(uri)),next"}}

	return func(yield func(models.PlaylistItem, error) bool) {
		for item, err := range paginate[SpotifyPlaylistItem](ctx, s, "list playlist items", endpoint, ItemPageSize, fields) {
			if err != nil {
				yield(models.PlaylistItem{}, err)
				return
			}
			if item.AddedAt == "" || item.Track == nil || item.Track.URI == "" {
				continue
			}

			addedAt, err := time.Parse(time.RFC3339, item.AddedAt)
			if err != nil {
				yield(models.PlaylistItem{}, shared.NewError(shared.KindAPI, "parse added_at", 0, []byte(item.AddedAt), err))
				return
			}

			if !yield(models.PlaylistItem{URI: spotify.URI(item.Track.URI), AddedAt: addedAt}, nil) {
				return
			}
		}
	}
}

// CreatePlaylist creates a private playlist for ownerID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, ownerID, name, description string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(ownerID))
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created SpotifySimplePlaylist
	if err := s.doRequest(ctx, "create playlist", http.MethodPost, endpoint, nil, body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, shared.NewError(shared.KindAPI, "create playlist: response without id", 0, nil, nil)
	}

	s.logger.Infof("created playlist %s (%s)", name, created.ID)

	playlist := created.model()
	return &playlist, nil
}

// AddItems appends uris to a playlist in batches.
func (s *SpotifyService) AddItems(ctx context.Context, playlistID spotify.ID, uris []spotify.URI) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(string(playlistID)))

	for chunk := range slices.Chunk(uris, MaxBatchSize) {
		body := map[string]any{"uris": chunk}
		if err := s.doRequest(ctx, "add tracks", http.MethodPost, endpoint, nil, body, nil); err != nil {
			return err
		}
		s.logger.Infof("added %d tracks to %s", len(chunk), playlistID)
	}

	return nil
}

// RemoveItems removes uris from a playlist in batches.
func (s *SpotifyService) RemoveItems(ctx context.Context, playlistID spotify.ID, uris []spotify.URI) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(string(playlistID)))

	for chunk := range slices.Chunk(uris, MaxBatchSize) {
		tracks := make([]trackURI, len(chunk))
		for i, uri := range chunk {
			tracks[i] = trackURI{URI: uri}
		}

		body := map[string]any{"tracks": tracks}
		if err := s.doRequest(ctx, "remove tracks", http.MethodDelete, endpoint, nil, body, nil); err != nil {
			return err
		}
		s.logger.Infof("removed %d tracks from %s", len(chunk), playlistID)
	}

	return nil
}

// UpdateDescription overwrites a playlist's description.
func (s *SpotifyService) UpdateDescription(ctx context.Context, playlistID spotify.ID, description string) error {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(string(playlistID)))
	body := map[string]any{"description": description}

	if err := s.doRequest(ctx, "update description", http.MethodPut, endpoint, nil, body, nil); err != nil {
		return err
	}

	s.logger.Infof("updated description for playlist %s", playlistID)
	return nil
}
