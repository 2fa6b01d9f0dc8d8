package testing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Credentials accepted by [FakeSpotify].
const (
	FakeClientID     = "client-id"
	FakeClientSecret = "client-secret"
	FakeRefreshToken = "refresh-token"
	FakeAccessToken  = "access-token"
	FakeAuthCode     = "auth-code"
	FakeNewRefresh   = "new-refresh-token"
	FakeUserID       = "listener"
)

// FakeItem is one entry of a fake playlist. An empty URI is served as a null track.
type FakeItem struct {
	URI     string
	AddedAt string
}

// FakePlaylist is the server-side state of one playlist.
type FakePlaylist struct {
	ID          string
	Name        string
	OwnerID     string
	Description string
	Public      bool
	Items       []FakeItem
}

// URIs returns the item URIs in playlist order.
func (p FakePlaylist) URIs() []string {
	uris := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		uris = append(uris, item.URI)
	}
	return uris
}

// Request is a request recorded by [FakeSpotify].
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

type failure struct {
	method string
	suffix string
	nth    int
	seen   int
	status int
	body   string
}

// FakeSpotify is an in-memory stand-in for the Spotify accounts service and Web API.
//
// It serves the token endpoint at /api/token and the Web API below /v1.
type FakeSpotify struct {
	Server *httptest.Server

	mu        sync.Mutex
	playlists []*FakePlaylist
	nextID    int
	requests  []Request
	failures  []*failure
	now       time.Time
}

// NewFakeSpotify starts a fake server that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)} // added_at stamp for appended tracks

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.token)
	mux.HandleFunc("GET /v1/me", f.authed(f.me))
	mux.HandleFunc("GET /v1/me/playlists", f.authed(f.listPlaylists))
	mux.HandleFunc("POST /v1/users/{user}/playlists", f.authed(f.createPlaylist))
	mux.HandleFunc("GET /v1/playlists/{id}/tracks", f.authed(f.listItems))
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", f.authed(f.addItems))
	mux.HandleFunc("DELETE /v1/playlists/{id}/tracks", f.authed(f.removeItems))
	mux.HandleFunc("PUT /v1/playlists/{id}", f.authed(f.updatePlaylist))

	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// TokenURL is the fake accounts token endpoint.
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }

// AuthURL is the fake accounts authorize endpoint (never served).
func (f *FakeSpotify) AuthURL() string { return f.Server.URL + "/authorize" }

// BaseURL is the fake Web API root.
func (f *FakeSpotify) BaseURL() string { return f.Server.URL + "/v1" }

// AddPlaylist seeds a playlist and returns its ID.
func (f *FakeSpotify) AddPlaylist(name, ownerID string, items ...FakeItem) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addPlaylistLocked(name, ownerID, "", items)
}

func (f *FakeSpotify) addPlaylistLocked(name, ownerID, description string, items []FakeItem) string {
	f.nextID++
	id := fmt.Sprintf("pl%d", f.nextID)
	f.playlists = append(f.playlists, &FakePlaylist{
		ID:          id,
		Name:        name,
		OwnerID:     ownerID,
		Description: description,
		Items:       slices.Clone(items),
	})
	return id
}

// Playlist returns a copy of the playlist with the given ID.
func (f *FakeSpotify) Playlist(id string) (FakePlaylist, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.find(id); p != nil {
		cp := *p
		cp.Items = slices.Clone(p.Items)
		return cp, true
	}
	return FakePlaylist{}, false
}

// PlaylistsNamed returns copies of every playlist called name, in creation order.
func (f *FakeSpotify) PlaylistsNamed(name string) []FakePlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []FakePlaylist
	for _, p := range f.playlists {
		if p.Name == name {
			cp := *p
			cp.Items = slices.Clone(p.Items)
			out = append(out, cp)
		}
	}
	return out
}

// Requests returns every recorded request.
func (f *FakeSpotify) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// Count returns how many recorded requests used method on a path ending in suffix.
func (f *FakeSpotify) Count(method, suffix string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			n++
		}
	}
	return n
}

// FailNth makes the nth request (1-based) using method on a path ending in suffix respond with status and body.
func (f *FakeSpotify) FailNth(method, suffix string, nth, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, &failure{method: method, suffix: suffix, nth: nth, status: status, body: body})
}

func (f *FakeSpotify) find(id string) *FakePlaylist {
	for _, p := range f.playlists {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// record logs every request and applies injected failures before routing.
func (f *FakeSpotify) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		query := map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}

		f.mu.Lock()
		f.requests = append(f.requests, Request{Method: r.Method, Path: r.URL.Path, Query: query, Body: string(body)})
		var hit *failure
		for _, fl := range f.failures {
			if fl.method == r.Method && strings.HasSuffix(r.URL.Path, fl.suffix) {
				fl.seen++
				if fl.seen == fl.nth {
					hit = fl
				}
			}
		}
		f.mu.Unlock()

		if hit != nil {
			w.WriteHeader(hit.status)
			io.WriteString(w, hit.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": message}})
}

func (f *FakeSpotify) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeAccessToken {
			apiError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}
		next(w, r)
	}
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(FakeClientID+":"+FakeClientSecret))
	if r.Header.Get("Authorization") != want {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != FakeRefreshToken {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": FakeAccessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	case "authorization_code":
		if r.PostForm.Get("code") != FakeAuthCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid authorization code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  FakeAccessToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": FakeNewRefresh,
			"scope":         "playlist-modify-private",
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *FakeSpotify) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           FakeUserID,
		"display_name": "Test Listener",
		"email":        "listener@example.com",
		"country":      "SE",
		"product":      "premium",
		"followers":    map[string]int{"total": 3},
	})
}

func pageParams(r *http.Request, max int) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > max {
		return 0, 0, false
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		return 0, 0, false
	}
	return limit, offset, true
}

func (f *FakeSpotify) pageBody(r *http.Request, items []any, limit, offset int) map[string]any {
	end := min(offset+limit, len(items))
	start := min(offset, end)

	var next any
	if end < len(items) {
		next = fmt.Sprintf("%s%s?offset=%d&limit=%d", f.Server.URL, r.URL.Path, end, limit)
	}

	return map[string]any{
		"items":  items[start:end],
		"total":  len(items),
		"limit":  limit,
		"offset": offset,
		"next":   next,
	}
}

func (f *FakeSpotify) playlistJSON(p *FakePlaylist) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"owner":       map[string]string{"id": p.OwnerID, "display_name": p.OwnerID},
		"public":      p.Public,
		"tracks":      map[string]int{"total": len(p.Items)},
		"uri":         "spotify:playlist:" + p.ID,
	}
}

func (f *FakeSpotify) listPlaylists(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(r, 50)
	if !ok {
		apiError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	f.mu.Lock()
	items := make([]any, 0, len(f.playlists))
	for _, p := range f.playlists {
		items = append(items, f.playlistJSON(p))
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, f.pageBody(r, items, limit, offset))
}

func (f *FakeSpotify) listItems(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(r, 100)
	if !ok {
		apiError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	f.mu.Lock()
	p := f.find(r.PathValue("id"))
	if p == nil {
		f.mu.Unlock()
		apiError(w, http.StatusNotFound, "Resource not found")
		return
	}
	items := make([]any, 0, len(p.Items))
	for _, item := range p.Items {
		var track any
		if item.URI != "" {
			track = map[string]string{"uri": item.URI, "type": "track"}
		}
		items = append(items, map[string]any{"added_at": item.AddedAt, "track": track})
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, f.pageBody(r, items, limit, offset))
}

func (f *FakeSpotify) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      *bool  `json:"public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		apiError(w, http.StatusBadRequest, "Missing required field: name")
		return
	}
	if r.PathValue("user") != FakeUserID {
		apiError(w, http.StatusForbidden, "You cannot create a playlist for another user")
		return
	}

	f.mu.Lock()
	id := f.addPlaylistLocked(body.Name, FakeUserID, body.Description, nil)
	p := f.find(id)
	p.Public = body.Public != nil && *body.Public
	resp := f.playlistJSON(p)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, resp)
}

func (f *FakeSpotify) addItems(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URIs []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.URIs) == 0 {
		apiError(w, http.StatusBadRequest, "No uris provided")
		return
	}
	if len(body.URIs) > 100 {
		apiError(w, http.StatusBadRequest, "You can add a maximum of 100 tracks per request.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.find(r.PathValue("id"))
	if p == nil {
		apiError(w, http.StatusNotFound, "Resource not found")
		return
	}
	stamp := f.now.UTC().Format(time.RFC3339)
	for _, uri := range body.URIs {
		p.Items = append(p.Items, FakeItem{URI: uri, AddedAt: stamp})
	}
	writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": fmt.Sprintf("snap-%d", len(p.Items))})
}

func (f *FakeSpotify) removeItems(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tracks []struct {
			URI string `json:"uri"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Tracks) == 0 {
		apiError(w, http.StatusBadRequest, "No tracks provided")
		return
	}
	if len(body.Tracks) > 100 {
		apiError(w, http.StatusBadRequest, "Too many ids requested")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.find(r.PathValue("id"))
	if p == nil {
		apiError(w, http.StatusNotFound, "Resource not found")
		return
	}
	remove := map[string]bool{}
	for _, t := range body.Tracks {
		remove[t.URI] = true
	}
	p.Items = slices.DeleteFunc(p.Items, func(item FakeItem) bool { return remove[item.URI] })
	writeJSON(w, http.StatusOK, map[string]string{"snapshot_id": fmt.Sprintf("snap-%d", len(p.Items))})
}

func (f *FakeSpotify) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.find(r.PathValue("id"))
	if p == nil {
		apiError(w, http.StatusNotFound, "Resource not found")
		return
	}
	if body.Description != nil {
		p.Description = *body.Description
	}
	w.WriteHeader(http.StatusOK)
}
