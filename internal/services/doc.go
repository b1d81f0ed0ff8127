// Package services defines the [PlaybackClient] interface for the streaming service and implements it for Spotify.
//
// # Playback Client
//
// The badge needs four outbound operations: refresh an access token, read the currently playing track,
// read the most recent track, and download image bytes. [PlaybackClient] names exactly those so the token
// guard and the badge engine can be tested against fakes.
//
// # Spotify Implementation
//
// [SpotifyService] uses [oauth2] for the authorization-code and refresh-token grants, and
// github.com/zmb3/spotify/v2 for Web API calls. A short-lived client is built per access token;
// the service never refreshes on its own, that belongs to the token guard.
//
// Outbound requests share one [http.Client] and an optional [rate.Limiter].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrRefreshFailed] : refresh grant rejected or unreachable
//   - [shared.ErrAuthFailed] : code exchange or profile lookup failed
//   - [shared.ErrFetchFailed] : Web API or image request failed
//   - [shared.ErrNoHistory] : the user has never played anything
//
// # Snapshot Mapping
//
// Tracks are mapped to [models.TrackSnapshot]. Artwork prefers the second (medium) album image and falls
// back to the first; an album without images yields an empty artwork URL.
package services
