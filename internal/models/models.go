package models

import (
	"fmt"
	"strings"
	"time"
)

// Credential is the stored OAuth state for one end user.
type Credential struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Validate checks the fields the credential store requires.
func (c *Credential) Validate() error {
	if c == nil {
		return fmt.Errorf("credential is nil")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("credential user id is empty")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("credential access token is empty")
	}
	return nil
}

// Expired reports whether the access token must no longer be used at now.
//
// The boundary is inclusive: a token whose expiry equals now is expired.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Apply returns a copy of c updated from a freshly issued grant.
//
// The refresh token is replaced only when the grant carries one.
func (c Credential) Apply(g *Grant, now time.Time) *Credential {
	c.AccessToken = g.AccessToken
	if g.RefreshToken != "" {
		c.RefreshToken = g.RefreshToken
	}
	c.ExpiresAt = now.Add(g.ExpiresIn)
	return &c
}

// Grant is the result of an authorization-code exchange or refresh.
type Grant struct {
	AccessToken  string
	RefreshToken string        // empty when the service did not rotate it
	ExpiresIn    time.Duration // lifetime relative to issuance
}

// TrackSnapshot describes the current or most recent playback.
type TrackSnapshot struct {
	TrackName   string
	ArtistNames []string
	ArtworkURL  string // empty when the album has no images
	TrackURI    string // empty when nothing has ever played
	Offline     bool
}

// OfflineLabel is shown in place of a track name when the user has no history.
const OfflineLabel = "Offline"

// OfflineSnapshot is the sentinel rendered when nothing has ever played.
func OfflineSnapshot() *TrackSnapshot {
	return &TrackSnapshot{TrackName: OfflineLabel, Offline: true}
}

// Artists joins the artist names the way the badge displays them.
func (t *TrackSnapshot) Artists() string {
	return strings.Join(t.ArtistNames, " & ")
}
