// Package tokens guarantees a valid access token for a user before any playback call.
//
// # Guard
//
// [Guard] reads the stored credential and returns the access token unchanged while it is still valid.
// Expired credentials are refreshed through the playback client and written back before the token is returned.
//
// # Single-flight Refresh
//
// Concurrent callers for the same user share one refresh. The first caller starts it; everyone else waits
// for its outcome. Refreshes for different users proceed independently. The refresh itself runs detached
// from any single caller's context, bounded by its own timeout, so a cancelled request neither aborts the
// refresh for the other waiters nor leaves a half-written credential behind.
//
// # Errors
//   - [shared.ErrNoCredential] : no row for the user; callers send them to /login
//   - [shared.ErrRefreshFailed] : the refresh grant was rejected or unreachable
//   - [shared.ErrStoreUnavailable] : the credential store could not be read or written
package tokens
