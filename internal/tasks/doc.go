// Package tasks implements the junk mover pipeline on top of [services.Service].
//
// # Pipeline
//
// [Mover.Run] performs one pass:
//
//  1. Find the source playlist by name among the current user's playlists
//  2. Read every track and keep those added on or before the cutoff date ([Eligible])
//  3. Bucket the kept tracks by two-digit year ([GroupByYear])
//  4. Per bucket, in first-occurrence order:
//     - find or create "<YY> Junk Drawer" ([EnsurePlaylist])
//     - append the tracks, then remove them from the source
//     - rewrite the drawer's description with the run metadata
//  5. Rewrite the source description with the run total
//
// Appending always precedes removal, so a failure between the two leaves a
// track in both playlists rather than in neither. The first failed request
// ends the run; buckets already moved stay moved.
//
// # Dates
//
// The cutoff is the calendar date of "now" minus the configured number of
// days. A track's added date is the UTC calendar date of its added_at
// timestamp. Both are compared as midnight UTC values.
//
// # Progress Reporting
//
// Run accepts an optional channel of [ProgressUpdate]. Updates are sent with
// select/default so a slow reader never blocks the run.
package tasks
