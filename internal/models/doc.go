// Package models defines the domain types shared by the nowplaying badge service.
//
// 1. Persistent entities
//   - [Credential] : per-user OAuth credential, one row per Spotify user id
//
// 2. Ephemeral values produced per render request
//   - [TrackSnapshot] : what is (or was last) playing
//   - [Palette] : ordered colours derived from album artwork
//   - [Grant] : the output of a token issuance or refresh
//
// Nothing in this package performs I/O.
package models
