package tasks

import (
	"fmt"
	"time"

	"github.com/liverslices/spotify-automation/internal/models"
	"github.com/zmb3/spotify/v2"
)

// Bucket groups the eligible tracks added in the same year.
type Bucket struct {
	Suffix string // two-digit year, "05" for 2005
	Items  []models.PlaylistItem
}

// URIs returns the bucket's track URIs in source order.
func (b Bucket) URIs() []spotify.URI {
	uris := make([]spotify.URI, len(b.Items))
	for i, item := range b.Items {
		uris[i] = item.URI
	}
	return uris
}

// CutoffDate is the calendar date of now, in now's location, minus days.
//
// Dates are represented as midnight UTC so they compare with [AddedDate].
func CutoffDate(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-days, 0, 0, 0, 0, time.UTC)
}

// AddedDate is the UTC calendar date of an added_at instant.
func AddedDate(addedAt time.Time) time.Time {
	y, m, d := addedAt.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Eligible reports whether a track added at addedAt is old enough to move.
func Eligible(addedAt, cutoff time.Time) bool {
	return !AddedDate(addedAt).After(cutoff)
}

// YearSuffix is the zero-padded last two digits of the added date's year.
func YearSuffix(addedAt time.Time) string {
	return fmt.Sprintf("%02d", AddedDate(addedAt).Year()%100)
}

// GroupByYear buckets items by [YearSuffix], ordered by each suffix's first occurrence.
func GroupByYear(items []models.PlaylistItem) []Bucket {
	var buckets []Bucket
	index := map[string]int{}

	for _, item := range items {
		suffix := YearSuffix(item.AddedAt)
		i, ok := index[suffix]
		if !ok {
			i = len(buckets)
			index[suffix] = i
			buckets = append(buckets, Bucket{Suffix: suffix})
		}
		buckets[i].Items = append(buckets[i].Items, item)
	}

	return buckets
}
