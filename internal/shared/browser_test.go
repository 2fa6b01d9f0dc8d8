package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		rt   string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}

	for _, tt := range tc {
		t.Run(tt.rt, func(t *testing.T) {
			cmd, err := browserCommand(tt.rt, "https://accounts.spotify.com/authorize")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Args[0])
			assert.Equal(t, "https://accounts.spotify.com/authorize", cmd.Args[len(cmd.Args)-1])
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		t.Cleanup(func() { getRuntime = orig })
		getRuntime = func() string { return "plan9" }

		err := OpenBrowser("https://example.com")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
