package shared

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.env
var exampleEnv []byte

//go:embed config.example.toml
var exampleTOML []byte

// Keys recognised in .env files and the process environment.
const (
	KeyClientID       = "JUNK_MOVER_CLIENT_ID"
	KeyClientSecret   = "JUNK_MOVER_CLIENT_SECRET"
	KeyRefreshToken   = "JUNK_MOVER_REFRESH_TOKEN"
	KeyRedirectURI    = "JUNK_MOVER_REDIRECT_URI"
	KeySourcePlaylist = "JUNK_MOVER_SOURCE_PLAYLIST"
	KeyDurationDays   = "JUNK_MOVER_DURATION_DAYS"
	KeyRateLimit      = "JUNK_MOVER_RATE_LIMIT"
	KeyLogDir         = "JUNK_MOVER_LOG_DIR"
	KeyLogLevel       = "JUNK_MOVER_LOG_LEVEL"
)

const (
	DefaultRedirectURI = "https://example.com/callback"
	DefaultLogDir      = "logs"
	DefaultLogLevel    = "info"
	DefaultRateLimit   = 10.0
)

// Config represents the application configuration, loaded once at startup from a .env or TOML file.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Mover   MoverConfig   `toml:"mover"`
	Log     LogConfig     `toml:"log"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	RedirectURI  string `toml:"redirect_uri"`
}

// MoverConfig contains the settings of the junk mover run.
//
// DurationDays is a pointer so that an explicit 0 ("added today or earlier") can be told apart from a missing value.
type MoverConfig struct {
	SourcePlaylist string   `toml:"source_playlist"`
	DurationDays   *int     `toml:"duration_days,omitempty"`
	RateLimit      *float64 `toml:"rate_limit,omitempty"` // requests per second, 0 disables pacing
}

// LogConfig contains log output settings.
type LogConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`
}

// LookupFunc reads a single environment value. [os.LookupEnv] satisfies it.
type LookupFunc func(key string) (string, bool)

// DefaultConfig returns a Config with defaults for every optional setting.
func DefaultConfig() *Config {
	rate := DefaultRateLimit
	return &Config{
		Spotify: SpotifyConfig{RedirectURI: DefaultRedirectURI},
		Mover:   MoverConfig{RateLimit: &rate},
		Log:     LogConfig{Dir: DefaultLogDir, Level: DefaultLogLevel},
	}
}

// LoadConfig reads the configuration file at path and overlays JUNK_MOVER_* values from lookup.
//
// Files ending in .toml are parsed as TOML, anything else as a key=value .env file.
// A missing .env file is not an error since the environment may supply every key.
func LoadConfig(path string, lookup LookupFunc) (*Config, error) {
	config := DefaultConfig()

	if isTOML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewError(KindConfig, "read config file", 0, nil, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, NewError(KindConfig, "parse config", 0, nil, err)
		}
	} else {
		values := map[string]string{}
		if _, err := os.Stat(path); err == nil {
			if values, err = godotenv.Read(path); err != nil {
				return nil, NewError(KindConfig, "parse config", 0, nil, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, NewError(KindConfig, "read config file", 0, nil, err)
		}
		if err := config.apply(values); err != nil {
			return nil, err
		}
	}

	if lookup != nil {
		overrides := map[string]string{}
		for _, key := range allKeys {
			if v, ok := lookup(key); ok && v != "" {
				overrides[key] = v
			}
		}
		if err := config.apply(overrides); err != nil {
			return nil, err
		}
	}

	config.fillDefaults()
	return config, nil
}

var allKeys = []string{
	KeyClientID, KeyClientSecret, KeyRefreshToken, KeyRedirectURI,
	KeySourcePlaylist, KeyDurationDays, KeyRateLimit, KeyLogDir, KeyLogLevel,
}

func (c *Config) apply(values map[string]string) error {
	for key, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		switch key {
		case KeyClientID:
			c.Spotify.ClientID = v
		case KeyClientSecret:
			c.Spotify.ClientSecret = v
		case KeyRefreshToken:
			c.Spotify.RefreshToken = v
		case KeyRedirectURI:
			c.Spotify.RedirectURI = v
		case KeySourcePlaylist:
			c.Mover.SourcePlaylist = v
		case KeyDurationDays:
			days, err := strconv.Atoi(v)
			if err != nil {
				return NewError(KindConfig, KeyDurationDays+" must be an integer", 0, nil, err)
			}
			c.Mover.DurationDays = &days
		case KeyRateLimit:
			rate, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return NewError(KindConfig, KeyRateLimit+" must be a number", 0, nil, err)
			}
			c.Mover.RateLimit = &rate
		case KeyLogDir:
			c.Log.Dir = v
		case KeyLogLevel:
			c.Log.Level = v
		}
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = DefaultRedirectURI
	}
	if c.Mover.RateLimit == nil {
		rate := DefaultRateLimit
		c.Mover.RateLimit = &rate
	}
	if c.Log.Dir == "" {
		c.Log.Dir = DefaultLogDir
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Require checks that every key is set and valid, reporting all missing keys in a single error.
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if !c.has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		op := "missing settings: " + strings.Join(missing, ", ") + ". Fill them in the config file"
		return NewError(KindConfig, op, 0, nil, nil)
	}

	for _, key := range keys {
		if key == KeyDurationDays && *c.Mover.DurationDays < 0 {
			return NewError(KindConfig, KeyDurationDays+" cannot be negative; use 0 for 'today'", 0, nil, nil)
		}
		if key == KeyRateLimit && *c.Mover.RateLimit < 0 {
			return NewError(KindConfig, KeyRateLimit+" cannot be negative", 0, nil, nil)
		}
	}
	return nil
}

func (c *Config) has(key string) bool {
	switch key {
	case KeyClientID:
		return c.Spotify.ClientID != ""
	case KeyClientSecret:
		return c.Spotify.ClientSecret != ""
	case KeyRefreshToken:
		return c.Spotify.RefreshToken != ""
	case KeyRedirectURI:
		return c.Spotify.RedirectURI != ""
	case KeySourcePlaylist:
		return c.Mover.SourcePlaylist != ""
	case KeyDurationDays:
		return c.Mover.DurationDays != nil
	case KeyRateLimit:
		return c.Mover.RateLimit != nil
	case KeyLogDir:
		return c.Log.Dir != ""
	case KeyLogLevel:
		return c.Log.Level != ""
	default:
		return false
	}
}

// DurationDays returns the configured age threshold, zero when unset.
func (c *Config) DurationDays() int {
	if c.Mover.DurationDays == nil {
		return 0
	}
	return *c.Mover.DurationDays
}

// RateLimit returns the configured request rate.
func (c *Config) RateLimit() float64 {
	if c.Mover.RateLimit == nil {
		return DefaultRateLimit
	}
	return *c.Mover.RateLimit
}

// SaveRefreshToken persists token into the configuration file at path.
//
// Only the refresh token entry changes; in .env files that is the JUNK_MOVER_REFRESH_TOKEN line,
// in TOML files the refresh_token key of the [spotify] table.
func SaveRefreshToken(path string, config *Config, token string) error {
	config.Spotify.RefreshToken = token
	if isTOML(path) {
		return UpdateTOMLFile(path, "spotify", "refresh_token", token)
	}
	return UpdateEnvFile(path, KeyRefreshToken, token)
}

// UpdateTOMLFile sets key = value inside [table] of the TOML file at path, keeping every other line as is.
//
// Only what the file itself holds is written: environment overrides and defaults never reach disk.
// Layouts the line rewrite cannot handle (dotted keys, inline tables) fall back to re-encoding the file's own values.
func UpdateTOMLFile(path, table, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]string{key: value}); err != nil {
		return fmt.Errorf("failed to encode config entry: %w", err)
	}
	entry := strings.TrimSpace(buf.String())

	content := setTOMLKey(string(data), table, key, entry)

	var check map[string]any
	if _, err := toml.Decode(content, &check); err == nil && tomlValue(check, table, key) == value {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		return nil
	}

	values := map[string]any{}
	if _, err := toml.Decode(string(data), &values); err != nil {
		return NewError(KindConfig, "parse config", 0, nil, err)
	}
	section, ok := values[table].(map[string]any)
	if !ok {
		section = map[string]any{}
		values[table] = section
	}
	section[key] = value

	buf.Reset()
	if err := toml.NewEncoder(&buf).Encode(values); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setTOMLKey replaces the key line inside [table], inserts it after the table header,
// or appends the table when the document has none.
func setTOMLKey(doc, table, key, entry string) string {
	var lines []string
	if doc != "" {
		lines = strings.Split(strings.TrimRight(doc, "\n"), "\n")
	}

	current, header := "", -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			current = ""
			if end := strings.Index(trimmed, "]"); end > 0 {
				current = strings.TrimSpace(strings.Trim(trimmed[:end], "["))
			}
			if current == table {
				header = i
			}
			continue
		}
		if current != table || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if k, _, ok := strings.Cut(trimmed, "="); ok && strings.TrimSpace(k) == key {
			lines[i] = entry
			return strings.Join(lines, "\n") + "\n"
		}
	}

	switch {
	case header >= 0:
		lines = slices.Insert(lines, header+1, entry)
	case len(lines) == 0:
		lines = []string{"[" + table + "]", entry}
	default:
		lines = append(lines, "", "["+table+"]", entry)
	}
	return strings.Join(lines, "\n") + "\n"
}

func tomlValue(doc map[string]any, table, key string) string {
	section, ok := doc[table].(map[string]any)
	if !ok {
		return ""
	}
	v, _ := section[key].(string)
	return v
}

// UpdateEnvFile sets key=value in the .env file at path, keeping every other line (comments included) as is.
//
// A missing file is created holding only the new entry.
func UpdateEnvFile(path, key, value string) error {
	entry := map[string]string{key: value}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := godotenv.Write(entry, path); err != nil {
			return fmt.Errorf("failed to write env file: %w", err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	line, err := godotenv.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal env entry: %w", err)
	}

	var lines []string
	updated := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		text := scanner.Text()
		if !updated && envKey(text) == key {
			text = line
			updated = true
		}
		lines = append(lines, text)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan env file: %w", err)
	}
	if !updated {
		lines = append(lines, line)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

// envKey returns the key of a KEY=value line, or "" for comments and blank lines.
func envKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}

// CreateConfigFile writes the embedded example configuration to path, picking the format from its extension.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	example := exampleEnv
	if isTOML(path) {
		example = exampleTOML
	}

	if err := os.WriteFile(path, example, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
