// package formatter renders the playlist names, descriptions and run reports written by the junk mover
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ManagedBy marks playlists whose description the mover owns.
const ManagedBy = "managed by Junk Mover"

// Timestamp formats a run start as UTC RFC 3339, to the second.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// DrawerName is the destination playlist name for a two-digit year suffix.
func DrawerName(suffix string) string {
	return fmt.Sprintf("%s Junk Drawer", suffix)
}

// BaseDescription is written when a drawer is created.
func BaseDescription(suffix, source string) string {
	return fmt.Sprintf("Junk drawer of tracks added in %s from %s", suffix, source)
}

// DrawerDescription annotates a drawer after a bucket was moved into it.
func DrawerDescription(suffix, source string, runAt time.Time, moved int) string {
	return fmt.Sprintf("%s. Last run %s moved %d tracks.", BaseDescription(suffix, source), Timestamp(runAt), moved)
}

// SourceDescription annotates the source playlist after every bucket was moved.
func SourceDescription(source string, runAt time.Time, total int) string {
	return fmt.Sprintf("%s (%s). Last run %s moved %d tracks to junk drawers.", source, ManagedBy, Timestamp(runAt), total)
}

// ReportRow is one bucket of a run report.
type ReportRow struct {
	Suffix        string
	Destination   string
	DestinationID string
	Moved         int
	Created       bool
}

// ReportToCSV converts report rows to CSV format with columns: Suffix, Destination, DestinationID, Moved, Created
func ReportToCSV(rows []ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Suffix", "Destination", "DestinationID", "Moved", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Suffix,
			row.Destination,
			row.DestinationID,
			strconv.Itoa(row.Moved),
			strconv.FormatBool(row.Created),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToText converts a run report to plain text format
func ReportToText(source string, runAt time.Time, cutoff time.Time, rows []ReportRow, dryRun bool) []byte {
	var buf bytes.Buffer

	total := 0
	for _, row := range rows {
		total += row.Moved
	}

	verb := "Moved"
	if dryRun {
		verb = "Would move"
	}

	fmt.Fprintf(&buf, "Source: %s\n", source)
	fmt.Fprintf(&buf, "Run: %s\n", Timestamp(runAt))
	fmt.Fprintf(&buf, "Cutoff: %s\n", cutoff.Format(time.DateOnly))
	fmt.Fprintf(&buf, "%s: %d tracks\n", verb, total)

	if len(rows) == 0 {
		buf.WriteString("\nNothing to move.\n")
		return buf.Bytes()
	}

	buf.WriteString("\n")
	for i, row := range rows {
		created := ""
		if row.Created {
			created = " (new)"
		}
		fmt.Fprintf(&buf, "%d. %s%s: %d tracks\n", i+1, row.Destination, created, row.Moved)
	}

	return buf.Bytes()
}
