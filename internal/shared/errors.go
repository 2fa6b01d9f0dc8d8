package shared

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")

	// Transport and API errors
	ErrNetwork          = fmt.Errorf("network error")
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrTimeout      = fmt.Errorf("operation timed out")
)

// Kind classifies an [Error] for callers that branch on the failure class.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindAuth
	KindNetwork
	KindAPI
	KindDomain
)

// maxBodySnippet caps the response body kept on an [Error].
const maxBodySnippet = 512

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// sentinel maps each kind onto the matching package-level error so that
// errors.Is(err, ErrAPIRequest) works on an *Error of KindAPI.
func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrInvalidConfig
	case KindAuth:
		return ErrAuthFailed
	case KindNetwork:
		return ErrNetwork
	case KindAPI:
		return ErrAPIRequest
	case KindDomain:
		return ErrPlaylistNotFound
	default:
		return nil
	}
}

// Error is a classified, terminal failure with enough context to diagnose a run by hand.
type Error struct {
	Kind   Kind
	Op     string // operation that failed, e.g. "add tracks"
	Status int    // HTTP status, zero when no response was received
	Body   string // response body snippet
	Err    error  // underlying cause
}

// NewError builds an [Error]. The body is trimmed to a short snippet.
func NewError(kind Kind, op string, status int, body []byte, err error) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Body: snippet(body), Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.sentinel().Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the [Kind] of the first [Error] in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		cut := maxBodySnippet
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
