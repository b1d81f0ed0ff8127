package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single refresh grant plus its store write.
const DefaultRefreshTimeout = 15 * time.Second

// CredentialStore is the persistence the guard reads and writes.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Upsert(ctx context.Context, cred *models.Credential) error
}

// Refresher performs the refresh-token grant.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*models.Grant, error)
}

// Guard hands out valid access tokens, refreshing at most once per user at a time.
type Guard struct {
	store     CredentialStore
	refresher Refresher
	flights   singleflight.Group
	now       func() time.Time
	timeout   time.Duration
	logger    *log.Logger
}

// Option configures a [Guard].
type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithRefreshTimeout bounds each refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the guard's logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard creates a [Guard] over store and refresher.
func NewGuard(store CredentialStore, refresher Refresher, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		refresher: refresher,
		now:       time.Now,
		timeout:   DefaultRefreshTimeout,
		logger:    shared.WithLogger(log.Default(), "component", "tokens"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AccessToken returns a valid access token for userID.
//
// A token whose expiry equals the current instant counts as expired.
func (g *Guard) AccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := g.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", fmt.Errorf("%w: %s", shared.ErrNoCredential, userID)
	}
	if !cred.Expired(g.now()) {
		return cred.AccessToken, nil
	}

	ch := g.flights.DoChan(userID, func() (any, error) {
		return g.refresh(context.WithoutCancel(ctx), userID)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			g.logger.Debug("joined in-flight refresh", "user", userID)
		}
		return res.Val.(string), nil
	}
}

// refresh runs once per user per flight.
//
// The credential is re-read inside the flight so a caller that lost the race against a just-finished
// refresh does not trigger a second grant.
func (g *Guard) refresh(ctx context.Context, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cred, err := g.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", fmt.Errorf("%w: %s", shared.ErrNoCredential, userID)
	}
	if !cred.Expired(g.now()) {
		return cred.AccessToken, nil
	}

	started := g.now()
	grant, err := g.refresher.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		g.logger.Warn("token refresh failed", "user", userID, "error", err)
		if errors.Is(err, shared.ErrRefreshFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	updated := cred.Apply(grant, started)
	if err := g.store.Upsert(ctx, updated); err != nil {
		return "", err
	}

	g.logger.Info("refreshed access token", "user", userID, "expires_at", updated.ExpiresAt.Format(time.RFC3339))
	return updated.AccessToken, nil
}
