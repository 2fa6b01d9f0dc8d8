package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		assert.Equal(t, DefaultRedirectURI, config.Spotify.RedirectURI)
		assert.Equal(t, DefaultLogDir, config.Log.Dir)
		assert.Equal(t, DefaultLogLevel, config.Log.Level)
		assert.Equal(t, DefaultRateLimit, config.RateLimit())
		assert.Nil(t, config.Mover.DurationDays)
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("reads env file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, `# comment
JUNK_MOVER_CLIENT_ID=id
JUNK_MOVER_CLIENT_SECRET=secret
JUNK_MOVER_REFRESH_TOKEN="refresh"
JUNK_MOVER_SOURCE_PLAYLIST=Inbox Zero
JUNK_MOVER_DURATION_DAYS=0
JUNK_MOVER_RATE_LIMIT=2.5
`)

			config, err := LoadConfig(path, nil)
			require.NoError(t, err)

			assert.Equal(t, "id", config.Spotify.ClientID)
			assert.Equal(t, "secret", config.Spotify.ClientSecret)
			assert.Equal(t, "refresh", config.Spotify.RefreshToken)
			assert.Equal(t, "Inbox Zero", config.Mover.SourcePlaylist)
			require.NotNil(t, config.Mover.DurationDays)
			assert.Equal(t, 0, config.DurationDays())
			assert.Equal(t, 2.5, config.RateLimit())
			assert.Equal(t, DefaultRedirectURI, config.Spotify.RedirectURI)
		})

		t.Run("reads toml file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, `[spotify]
client_id = "id"
client_secret = "secret"
refresh_token = "refresh"

[mover]
source_playlist = "Inbox"
duration_days = 14

[log]
dir = "/var/log/junk"
`)

			config, err := LoadConfig(path, nil)
			require.NoError(t, err)

			assert.Equal(t, "id", config.Spotify.ClientID)
			assert.Equal(t, "Inbox", config.Mover.SourcePlaylist)
			assert.Equal(t, 14, config.DurationDays())
			assert.Equal(t, "/var/log/junk", config.Log.Dir)
			assert.Equal(t, DefaultLogLevel, config.Log.Level)
			assert.Equal(t, DefaultRateLimit, config.RateLimit())
		})

		t.Run("missing env file falls back to environment", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.env")

			config, err := LoadConfig(path, lookupFrom(map[string]string{
				KeyClientID:     "env-id",
				KeyDurationDays: "7",
			}))
			require.NoError(t, err)

			assert.Equal(t, "env-id", config.Spotify.ClientID)
			assert.Equal(t, 7, config.DurationDays())
		})

		t.Run("environment overrides file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, "JUNK_MOVER_SOURCE_PLAYLIST=File\nJUNK_MOVER_CLIENT_ID=file-id\n")

			config, err := LoadConfig(path, lookupFrom(map[string]string{
				KeySourcePlaylist: "Env",
				KeyClientSecret:   "",
			}))
			require.NoError(t, err)

			assert.Equal(t, "Env", config.Mover.SourcePlaylist)
			assert.Equal(t, "file-id", config.Spotify.ClientID)
			assert.Empty(t, config.Spotify.ClientSecret)
		})

		t.Run("non-integer duration", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, "JUNK_MOVER_DURATION_DAYS=soon\n")

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), "must be an integer")
		})

		t.Run("missing toml file", func(t *testing.T) {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"), nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	})

	t.Run("Require", func(t *testing.T) {
		t.Run("lists every missing key", func(t *testing.T) {
			config := DefaultConfig()
			config.Spotify.ClientID = "id"

			err := config.Require(KeyClientID, KeyClientSecret, KeyRefreshToken, KeyDurationDays)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), "JUNK_MOVER_CLIENT_SECRET, JUNK_MOVER_REFRESH_TOKEN, JUNK_MOVER_DURATION_DAYS")
			assert.NotContains(t, err.Error(), "JUNK_MOVER_CLIENT_ID,")
		})

		t.Run("zero days is present", func(t *testing.T) {
			config := DefaultConfig()
			days := 0
			config.Mover.DurationDays = &days

			assert.NoError(t, config.Require(KeyDurationDays))
		})

		t.Run("negative days", func(t *testing.T) {
			config := DefaultConfig()
			days := -1
			config.Mover.DurationDays = &days

			err := config.Require(KeyDurationDays)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot be negative")
		})
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		for _, name := range []string{".env", "config.toml"} {
			t.Run(name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), name)
				require.NoError(t, CreateConfigFile(path))

				config, err := LoadConfig(path, nil)
				require.NoError(t, err)
				assert.Equal(t, "your_spotify_client_id", config.Spotify.ClientID)
				assert.Equal(t, "Inbox", config.Mover.SourcePlaylist)
				assert.Equal(t, 30, config.DurationDays())

				assert.Error(t, CreateConfigFile(path), "creating config file again should fail")
			})
		}
	})

	t.Run("UpdateEnvFile", func(t *testing.T) {
		t.Run("rewrites existing line in place", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, "# keep me\nJUNK_MOVER_CLIENT_ID=id\nJUNK_MOVER_REFRESH_TOKEN=old\nJUNK_MOVER_SOURCE_PLAYLIST=Inbox\n")

			require.NoError(t, UpdateEnvFile(path, KeyRefreshToken, "new"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "# keep me\nJUNK_MOVER_CLIENT_ID=id\nJUNK_MOVER_REFRESH_TOKEN=\"new\"\nJUNK_MOVER_SOURCE_PLAYLIST=Inbox\n", string(data))

			config, err := LoadConfig(path, nil)
			require.NoError(t, err)
			assert.Equal(t, "new", config.Spotify.RefreshToken)
		})

		t.Run("appends missing key", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, "JUNK_MOVER_CLIENT_ID=id")

			require.NoError(t, UpdateEnvFile(path, KeyRefreshToken, "tok"))

			config, err := LoadConfig(path, nil)
			require.NoError(t, err)
			assert.Equal(t, "id", config.Spotify.ClientID)
			assert.Equal(t, "tok", config.Spotify.RefreshToken)
		})

		t.Run("creates missing file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")

			require.NoError(t, UpdateEnvFile(path, KeyRefreshToken, "tok"))

			config, err := LoadConfig(path, nil)
			require.NoError(t, err)
			assert.Equal(t, "tok", config.Spotify.RefreshToken)
		})
	})

	t.Run("SaveRefreshToken to toml", func(t *testing.T) {
		t.Run("example file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, CreateConfigFile(path))

			config, err := LoadConfig(path, nil)
			require.NoError(t, err)
			require.NoError(t, SaveRefreshToken(path, config, "fresh"))

			reloaded, err := LoadConfig(path, nil)
			require.NoError(t, err)
			assert.Equal(t, "fresh", reloaded.Spotify.RefreshToken)
			assert.Equal(t, 30, reloaded.DurationDays())
		})

		t.Run("writes only the refresh token", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, "# my app\n[spotify]\nclient_id = \"id\"\n\n[mover]\nsource_playlist = \"Inbox\"\n")

			config, err := LoadConfig(path, lookupFrom(map[string]string{KeyClientSecret: "env-only-secret"}))
			require.NoError(t, err)
			require.Equal(t, "env-only-secret", config.Spotify.ClientSecret)

			require.NoError(t, SaveRefreshToken(path, config, "fresh"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t,
				"# my app\n[spotify]\nrefresh_token = \"fresh\"\nclient_id = \"id\"\n\n[mover]\nsource_playlist = \"Inbox\"\n",
				string(data),
			)
			assert.Equal(t, "fresh", config.Spotify.RefreshToken)
		})

		t.Run("replaces the existing entry in place", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, "[spotify]\nclient_id = \"id\"\nrefresh_token = \"old\" # rotated by token\n[log]\nlevel = \"debug\"\n")

			require.NoError(t, SaveRefreshToken(path, DefaultConfig(), "fresh"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "[spotify]\nclient_id = \"id\"\nrefresh_token = \"fresh\"\n[log]\nlevel = \"debug\"\n", string(data))
		})

		t.Run("refresh_token outside the spotify table is left alone", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, "[mover]\nrefresh_token = \"unrelated\"\n")

			require.NoError(t, SaveRefreshToken(path, DefaultConfig(), "fresh"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "[mover]\nrefresh_token = \"unrelated\"\n\n[spotify]\nrefresh_token = \"fresh\"\n", string(data))
		})

		t.Run("creates missing file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")

			require.NoError(t, SaveRefreshToken(path, DefaultConfig(), "fresh"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "[spotify]\nrefresh_token = \"fresh\"\n", string(data))
		})

		t.Run("dotted keys fall back to re-encoding file values", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, "spotify.client_id = \"id\"\nspotify.refresh_token = \"old\"\n")

			require.NoError(t, SaveRefreshToken(path, DefaultConfig(), "fresh"))

			reloaded, err := LoadConfig(path, nil)
			require.NoError(t, err)
			assert.Equal(t, "fresh", reloaded.Spotify.RefreshToken)
			assert.Equal(t, "id", reloaded.Spotify.ClientID)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "rate_limit")
		})

		t.Run("unparseable file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, "[spotify\nclient_id = \n")

			err := SaveRefreshToken(path, DefaultConfig(), "fresh")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	})
}
