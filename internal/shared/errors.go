package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNoCredential  = fmt.Errorf("no stored credential")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrInvalidState  = fmt.Errorf("invalid oauth state")

	// Playback and asset errors
	ErrFetchFailed = fmt.Errorf("fetch failed")
	ErrNoHistory   = fmt.Errorf("no playback history")
	ErrBadImage    = fmt.Errorf("unable to decode image")

	// Persistence errors
	ErrStoreUnavailable = fmt.Errorf("credential store unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
