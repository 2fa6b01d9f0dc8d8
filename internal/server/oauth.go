package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/liverslices/spotify-automation/internal/shared"
	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for tokens.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles OAuth2 callback requests for authorization code flow.
// Implements the [Handler] interface for registration with a [BasicRouter].
type OAuthHandler struct {
	exchanger   Exchanger
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler serving path.
// The state token should be random for CSRF protection.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		exchanger:  exchanger,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	code, err := CodeFromQuery(r.URL.Query(), h.state, true)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// CodeFromQuery extracts the authorization code from callback query parameters.
//
// A present state must equal want. requireState also rejects a missing state.
func CodeFromQuery(query url.Values, want string, requireState bool) (string, error) {
	if state, ok := query["state"]; ok || requireState {
		if len(state) == 0 || state[0] != want {
			return "", shared.NewError(shared.KindAuth, "invalid state parameter", 0, nil, nil)
		}
	}

	code := query.Get("code")
	if code == "" {
		errParam := query.Get("error")
		if errParam == "" {
			errParam = "missing code"
		}
		desc := errParam
		if d := query.Get("error_description"); d != "" {
			desc += " - " + d
		}
		return "", shared.NewError(shared.KindAuth, "authorization failed: "+desc, 0, nil, nil)
	}

	return code, nil
}

// CodeFromURL extracts the authorization code from a pasted redirect URL.
//
// Bare query strings ("code=...&state=...") are accepted too.
func CodeFromURL(raw, want string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.NewError(shared.KindConfig, "no redirect URL entered", 0, nil, nil)
	}

	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", shared.NewError(shared.KindConfig, "unparseable redirect URL", 0, nil, err)
	}
	return CodeFromQuery(values, want, false)
}

// LoopbackCallback reports whether redirectURI is a plain-http loopback address
// a local server can listen on, returning the listen address and callback path.
func LoopbackCallback(redirectURI string) (addr, path string, ok bool) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Scheme != "http" {
		return "", "", false
	}

	host := u.Hostname()
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return "", "", false
		}
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}

	path = u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, true
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Junk Mover is authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
