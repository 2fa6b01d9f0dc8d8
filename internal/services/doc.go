// Package services defines the [Service] interface over the Spotify Web API and implements it with [SpotifyService].
//
// # Authentication
//
// [SpotifyService] uses OAuth2 client credentials sent in the Authorization header.
// [SpotifyService.Authenticate] exchanges a stored refresh token for an access token;
// [SpotifyService.Exchange] trades an authorization code for a token pair during the token flow.
// The bearer token is fetched once per run and sent as is; it is not refreshed when it expires,
// so a single run must finish within the token lifetime (one hour).
//
// # Pagination
//
// Playlists and PlaylistItems return lazy [iter.Seq2] sequences that follow offset pagination
// until the API reports no next page. Items whose track is null (tracks no longer available) or whose URI
// or added_at is empty are skipped.
//
// # Batching
//
// AddItems and RemoveItems split their input into sequential batches of at most [MaxBatchSize]
// and stop at the first failed batch. Earlier batches stay applied.
//
// # Error Handling
//
// Every failure is a [shared.Error] carrying a [shared.Kind]:
//   - [shared.ErrAuthFailed] : token exchange rejected, or Authenticate not called
//   - [shared.ErrNetwork] : transport failure or unreadable response body
//   - [shared.ErrAPIRequest] : non-2xx status, with a snippet of the response body
package services
