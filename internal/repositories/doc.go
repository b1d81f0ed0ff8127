// Package repositories implements SQLite persistence for stored credentials.
//
// Key Implementations:
//   - [CredentialRepository] : per-user OAuth credentials keyed by Spotify user id
//
// Every operation acquires its own connection from the pool, executes, and releases it,
// so a failing store surfaces at the operation that needed it rather than through a shared handle.
// Connection and query failures wrap [shared.ErrStoreUnavailable].
package repositories
