// Package tasks orchestrates a badge render with real-time progress reporting.
//
// # Core Operation
//
// The [Renderer] interface defines one operation, [Renderer.Render]:
//
//  1. Obtain a valid access token through the token guard
//  2. Fetch the currently playing track, falling back to the most recent one
//  3. Fetch the artwork and extract its palette
//  4. Fetch the scan code when requested
//  5. Compose the SVG
//
// Steps 3 and 4 run concurrently.
//
// # Degraded Renders
//
// A user with no playback history gets the offline snapshot. Missing artwork, an artwork fetch
// failure, or an undecodable image skip palette extraction and switch the badge to the fallback
// palette in rainbow mode. A failed scan code fetch uses the placeholder. None of these fail the render.
//
// Authentication ([shared.ErrNoCredential], [shared.ErrRefreshFailed]) and persistence
// ([shared.ErrStoreUnavailable]) failures are returned to the caller.
//
// # Progress Reporting
//
// [ProgressUpdate] carries phase, step counters, a message and optional data.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [BadgeEngine] implements [Renderer] with dependencies on:
//   - [TokenSource] : the token guard
//   - [Playback] : the streaming service client
//   - [palette.Extractor] : median-cut by default
//   - [widget.Composer] : SVG output
package tasks
