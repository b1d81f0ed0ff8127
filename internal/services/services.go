// package services defines the [PlaybackClient] interface for the streaming service's HTTP APIs
package services

import (
	"context"

	"github.com/desertthunder/nowplaying/internal/models"
)

// PlaybackClient is the outbound surface the badge needs from the streaming service.
type PlaybackClient interface {
	// RefreshAccessToken trades a refresh token for a new access token.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*models.Grant, error)

	// CurrentlyPlaying returns the active track, or (nil, nil) when nothing is playing.
	CurrentlyPlaying(ctx context.Context, accessToken string) (*models.TrackSnapshot, error)

	// RecentlyPlayed returns the most recent track.
	// Returns [shared.ErrNoHistory] when the user has never played anything.
	RecentlyPlayed(ctx context.Context, accessToken string) (*models.TrackSnapshot, error)

	// FetchImage downloads raw image bytes.
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Authorizer is the interactive half of the OAuth flow used by the login and callback routes.
type Authorizer interface {
	// AuthURL builds the authorization redirect for the given state nonce.
	AuthURL(state string) string

	// Exchange trades an authorization code for a grant.
	Exchange(ctx context.Context, code string) (*models.Grant, error)

	// UserID resolves the stable account id that owns accessToken.
	UserID(ctx context.Context, accessToken string) (string, error)
}

// ScanCoder builds the image URL for a track's scannable code.
type ScanCoder interface {
	ScanCodeURL(uri string) string
}
