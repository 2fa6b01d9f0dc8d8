package formatter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptions(t *testing.T) {
	runAt := time.Date(2024, 6, 1, 14, 30, 5, 999, time.FixedZone("CEST", 2*60*60))

	t.Run("Timestamp", func(t *testing.T) {
		assert.Equal(t, "2024-06-01T12:30:05Z", Timestamp(runAt))
	})

	t.Run("DrawerName", func(t *testing.T) {
		assert.Equal(t, "23 Junk Drawer", DrawerName("23"))
		assert.Equal(t, "05 Junk Drawer", DrawerName("05"))
	})

	t.Run("BaseDescription", func(t *testing.T) {
		assert.Equal(t, "Junk drawer of tracks added in 23 from Inbox", BaseDescription("23", "Inbox"))
	})

	t.Run("DrawerDescription", func(t *testing.T) {
		assert.Equal(t,
			"Junk drawer of tracks added in 24 from Inbox. Last run 2024-06-01T12:30:05Z moved 2 tracks.",
			DrawerDescription("24", "Inbox", runAt, 2),
		)
	})

	t.Run("SourceDescription", func(t *testing.T) {
		assert.Equal(t,
			"Inbox (managed by Junk Mover). Last run 2024-06-01T12:30:05Z moved 5 tracks to junk drawers.",
			SourceDescription("Inbox", runAt, 5),
		)
	})
}

func TestReports(t *testing.T) {
	runAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local)
	rows := []ReportRow{
		{Suffix: "23", Destination: "23 Junk Drawer", DestinationID: "pl2", Moved: 3, Created: true},
		{Suffix: "24", Destination: "24 Junk Drawer", DestinationID: "pl3", Moved: 2},
	}

	t.Run("ReportToCSV", func(t *testing.T) {
		data, err := ReportToCSV(rows)
		require.NoError(t, err)

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"Suffix", "Destination", "DestinationID", "Moved", "Created"}, records[0])
		assert.Equal(t, []string{"23", "23 Junk Drawer", "pl2", "3", "true"}, records[1])
		assert.Equal(t, []string{"24", "24 Junk Drawer", "pl3", "2", "false"}, records[2])
	})

	t.Run("ReportToCSV with no rows", func(t *testing.T) {
		data, err := ReportToCSV(nil)
		require.NoError(t, err)
		assert.Equal(t, "Suffix,Destination,DestinationID,Moved,Created\n", string(data))
	})

	t.Run("ReportToText", func(t *testing.T) {
		output := string(ReportToText("Inbox", runAt, cutoff, rows, false))

		assert.Contains(t, output, "Source: Inbox\n")
		assert.Contains(t, output, "Run: 2024-06-01T12:00:00Z\n")
		assert.Contains(t, output, "Cutoff: 2024-05-02\n")
		assert.Contains(t, output, "Moved: 5 tracks\n")
		assert.Contains(t, output, "1. 23 Junk Drawer (new): 3 tracks\n")
		assert.Contains(t, output, "2. 24 Junk Drawer: 2 tracks\n")
	})

	t.Run("ReportToText dry run", func(t *testing.T) {
		output := string(ReportToText("Inbox", runAt, cutoff, rows, true))
		assert.Contains(t, output, "Would move: 5 tracks\n")
	})

	t.Run("ReportToText empty", func(t *testing.T) {
		output := string(ReportToText("Inbox", runAt, cutoff, nil, false))
		assert.Contains(t, output, "Moved: 0 tracks\n")
		assert.Contains(t, output, "Nothing to move.")
	})
}
