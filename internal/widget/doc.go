// Package widget composes the animated "now playing" SVG badge.
//
// A badge shows the album artwork (optionally spinning), the track name, the artist line, the service
// logo, a row of equalizer bars and, on request, the track's scan code. Bar colours index into the
// artwork palette, wrapping when there are more bars than colours; rainbow mode swaps the palette for
// a fixed spectrum and cycles its hue. Bar animation durations are random per render.
//
// Artwork and scan codes are inlined as data URIs so the document is self-contained.
package widget
