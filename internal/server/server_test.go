package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubExchanger struct {
	code  string
	token *oauth2.Token
	err   error
}

func (s *stubExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	s.code = code
	return s.token, s.err
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges the code", func(t *testing.T) {
		ex := &stubExchanger{token: &oauth2.Token{RefreshToken: "refresh"}}
		h := NewOAuthHandler(ex, "state-1", "/callback")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=state-1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authorization Successful")
		assert.Equal(t, "abc", ex.code)

		result := <-h.Result()
		require.NoError(t, result.Error())
		assert.Equal(t, "refresh", result.Token.RefreshToken)
	})

	t.Run("rejects wrong state", func(t *testing.T) {
		ex := &stubExchanger{}
		h := NewOAuthHandler(ex, "state-1", "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=other", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, ex.code)
		result := <-h.Result()
		assert.ErrorIs(t, result.Error(), shared.ErrAuthFailed)
	})

	t.Run("reports provider errors", func(t *testing.T) {
		h := NewOAuthHandler(&stubExchanger{}, "s", "/cb")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?error=access_denied&state=s", nil))

		result := <-h.Result()
		require.Error(t, result.Error())
		assert.Contains(t, result.Error().Error(), "access_denied")
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler(&stubExchanger{err: errors.New("invalid_grant")}, "s", "/cb")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?code=x&state=s", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		result := <-h.Result()
		assert.Contains(t, result.Error().Error(), "invalid_grant")
	})

	t.Run("handles a single callback", func(t *testing.T) {
		h := NewOAuthHandler(&stubExchanger{token: &oauth2.Token{}}, "s", "/cb")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cb?code=x&state=s", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?code=y&state=s", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("routes", func(t *testing.T) {
		assert.Equal(t, []string{"/callback"}, NewOAuthHandler(nil, "s", "").Routes())
		assert.Equal(t, []string{"/oauth/cb"}, NewOAuthHandler(nil, "s", "/oauth/cb").Routes())
	})
}

func TestCodeParsing(t *testing.T) {
	t.Run("CodeFromURL", func(t *testing.T) {
		t.Run("full redirect URL", func(t *testing.T) {
			code, err := CodeFromURL("https://example.com/callback?code=abc123&state=s1", "s1")
			require.NoError(t, err)
			assert.Equal(t, "abc123", code)
		})

		t.Run("bare query without state", func(t *testing.T) {
			code, err := CodeFromURL("  code=abc123  ", "s1")
			require.NoError(t, err)
			assert.Equal(t, "abc123", code)
		})

		t.Run("fragment is ignored", func(t *testing.T) {
			code, err := CodeFromURL("https://example.com/callback?code=abc#_=_", "s1")
			require.NoError(t, err)
			assert.Equal(t, "abc", code)
		})

		t.Run("state mismatch", func(t *testing.T) {
			_, err := CodeFromURL("https://example.com/callback?code=abc&state=evil", "s1")
			assert.ErrorIs(t, err, shared.ErrAuthFailed)
		})

		t.Run("missing code", func(t *testing.T) {
			_, err := CodeFromURL("https://example.com/callback?error=access_denied", "s1")
			assert.ErrorIs(t, err, shared.ErrAuthFailed)
			assert.Contains(t, err.Error(), "access_denied")
		})

		t.Run("empty input", func(t *testing.T) {
			_, err := CodeFromURL("   ", "s1")
			assert.ErrorIs(t, err, shared.ErrInvalidConfig)
		})
	})

	t.Run("CodeFromQuery requires state when asked", func(t *testing.T) {
		_, err := CodeFromQuery(map[string][]string{"code": {"abc"}}, "s1", true)
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
	})
}

func TestLoopbackCallback(t *testing.T) {
	cases := []struct {
		uri  string
		addr string
		path string
		ok   bool
	}{
		{"http://localhost:8888/callback", "localhost:8888", "/callback", true},
		{"http://127.0.0.1:3000/cb", "127.0.0.1:3000", "/cb", true},
		{"http://[::1]:9000/callback", "[::1]:9000", "/callback", true},
		{"http://localhost", "localhost:80", "/", true},
		{"https://localhost:8888/callback", "", "", false},
		{"https://example.com/callback", "", "", false},
		{"http://example.com/callback", "", "", false},
		{"://bad", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.uri, func(t *testing.T) {
			addr, path, ok := LoopbackCallback(tc.uri)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.addr, addr)
			assert.Equal(t, tc.path, path)
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle filters methods", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/submit", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submit", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})

	t.Run("Handler registers callback routes with logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		logger.SetLevel(log.DebugLevel)

		r := NewBasicRouter()
		r.Use(Logging(logger))
		h := NewOAuthHandler(&stubExchanger{token: &oauth2.Token{}}, "s", "/callback")
		r.Handler(h)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=secret-code&state=s", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, buf.String(), "callback request")
		assert.Contains(t, buf.String(), "status=200")
		assert.NotContains(t, buf.String(), "secret-code")
	})
}
