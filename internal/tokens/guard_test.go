package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/shared"
	tu "github.com/desertthunder/nowplaying/internal/testing"
)

var now = time.Unix(1_700_000_000, 0)

func fixedClock() time.Time { return now }

func credential(expiresAt time.Time) *models.Credential {
	return &models.Credential{UserID: "user1", AccessToken: "stale", RefreshToken: "r1", ExpiresAt: expiresAt}
}

func TestGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid Token Is Returned Unchanged", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now.Add(time.Hour)))
		client := &tu.MockPlaybackClient{}
		guard := NewGuard(store, client, WithClock(fixedClock))

		tok, err := guard.AccessToken(ctx, "user1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok != "stale" {
			t.Errorf("expected stored token, got %s", tok)
		}
		if client.RefreshCalls.Load() != 0 {
			t.Error("valid token must not trigger a refresh")
		}
	})

	t.Run("Expiry Boundary", func(t *testing.T) {
		tt := []struct {
			name        string
			expiresAt   time.Time
			wantRefresh bool
		}{
			{name: "one second left", expiresAt: now.Add(time.Second), wantRefresh: false},
			{name: "expires exactly now", expiresAt: now, wantRefresh: true},
			{name: "expired a second ago", expiresAt: now.Add(-time.Second), wantRefresh: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				store := tu.NewMemoryStore(credential(tc.expiresAt))
				client := &tu.MockPlaybackClient{}
				guard := NewGuard(store, client, WithClock(fixedClock))

				if _, err := guard.AccessToken(ctx, "user1"); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got := client.RefreshCalls.Load() == 1; got != tc.wantRefresh {
					t.Errorf("refresh called = %v, want %v", got, tc.wantRefresh)
				}
			})
		}
	})

	t.Run("Refresh Persists Grant", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now.Add(-time.Minute)))
		client := &tu.MockPlaybackClient{Grant: &models.Grant{AccessToken: "fresh", ExpiresIn: time.Hour}}
		guard := NewGuard(store, client, WithClock(fixedClock))

		tok, err := guard.AccessToken(ctx, "user1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok != "fresh" {
			t.Errorf("expected refreshed token, got %s", tok)
		}

		stored, _ := store.Get(ctx, "user1")
		if stored.AccessToken != "fresh" || stored.RefreshToken != "r1" {
			t.Errorf("unexpected stored credential %+v", stored)
		}
		if !stored.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Errorf("expected expiry now+1h, got %v", stored.ExpiresAt)
		}
	})

	t.Run("Rotated Refresh Token Is Stored", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now))
		client := &tu.MockPlaybackClient{Grant: &models.Grant{AccessToken: "fresh", RefreshToken: "r2", ExpiresIn: time.Hour}}
		guard := NewGuard(store, client, WithClock(fixedClock))

		if _, err := guard.AccessToken(ctx, "user1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		stored, _ := store.Get(ctx, "user1")
		if stored.RefreshToken != "r2" {
			t.Errorf("expected rotated refresh token, got %s", stored.RefreshToken)
		}
	})

	t.Run("No Credential", func(t *testing.T) {
		guard := NewGuard(tu.NewMemoryStore(), &tu.MockPlaybackClient{}, WithClock(fixedClock))

		_, err := guard.AccessToken(ctx, "ghost")
		if !errors.Is(err, shared.ErrNoCredential) {
			t.Errorf("expected ErrNoCredential, got %v", err)
		}
	})

	t.Run("Refresh Failure Leaves Store Untouched", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now.Add(-time.Minute)))
		client := &tu.MockPlaybackClient{RefreshErr: errors.New("invalid_grant")}
		guard := NewGuard(store, client, WithClock(fixedClock))

		_, err := guard.AccessToken(ctx, "user1")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if store.Upserts.Load() != 0 {
			t.Error("failed refresh must not write the store")
		}
	})

	t.Run("Store Unavailable", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.Err = shared.ErrStoreUnavailable
		guard := NewGuard(store, &tu.MockPlaybackClient{}, WithClock(fixedClock))

		_, err := guard.AccessToken(ctx, "user1")
		if !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})

	t.Run("Concurrent Callers Share One Refresh", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now.Add(-time.Minute)))
		gate := make(chan struct{})
		client := &tu.MockPlaybackClient{
			Grant:       &models.Grant{AccessToken: "fresh", ExpiresIn: time.Hour},
			RefreshGate: gate,
		}
		guard := NewGuard(store, client, WithClock(fixedClock))

		const callers = 20
		var wg sync.WaitGroup
		tokens := make([]string, callers)
		errs := make([]error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tokens[i], errs[i] = guard.AccessToken(ctx, "user1")
			}(i)
		}

		time.Sleep(20 * time.Millisecond)
		close(gate)
		wg.Wait()

		if n := client.RefreshCalls.Load(); n != 1 {
			t.Errorf("expected exactly one refresh, got %d", n)
		}
		for i := range tokens {
			if errs[i] != nil {
				t.Errorf("caller %d: unexpected error %v", i, errs[i])
			}
			if tokens[i] != "fresh" {
				t.Errorf("caller %d: expected fresh token, got %s", i, tokens[i])
			}
		}
	})

	t.Run("Different Users Refresh Independently", func(t *testing.T) {
		a := credential(now.Add(-time.Minute))
		b := credential(now.Add(-time.Minute))
		b.UserID = "user2"
		store := tu.NewMemoryStore(a, b)
		client := &tu.MockPlaybackClient{}
		guard := NewGuard(store, client, WithClock(fixedClock))

		var wg sync.WaitGroup
		for _, id := range []string{"user1", "user2"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := guard.AccessToken(ctx, id); err != nil {
					t.Errorf("%s: unexpected error %v", id, err)
				}
			}(id)
		}
		wg.Wait()

		if n := client.RefreshCalls.Load(); n != 2 {
			t.Errorf("expected one refresh per user, got %d", n)
		}
	})

	t.Run("Cancelled Caller Does Not Abort Refresh", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now.Add(-time.Minute)))
		gate := make(chan struct{})
		client := &tu.MockPlaybackClient{
			Grant:       &models.Grant{AccessToken: "fresh", ExpiresIn: time.Hour},
			RefreshGate: gate,
		}
		guard := NewGuard(store, client, WithClock(fixedClock))

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := guard.AccessToken(cctx, "user1")
			done <- err
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}

		close(gate)
		tok, err := guard.AccessToken(ctx, "user1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok != "fresh" {
			t.Errorf("expected fresh token, got %s", tok)
		}
		if n := client.RefreshCalls.Load(); n != 1 {
			t.Errorf("expected the detached refresh to be reused, got %d calls", n)
		}
	})

	t.Run("Refresh Timeout", func(t *testing.T) {
		store := tu.NewMemoryStore(credential(now.Add(-time.Minute)))
		guard := NewGuard(store, slowRefresher{}, WithClock(fixedClock), WithRefreshTimeout(10*time.Millisecond))

		_, err := guard.AccessToken(ctx, "user1")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
	})

	t.Run("Persists Through Credential Repository", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		repo := repositories.NewCredentialRepository(db)
		if err := repo.Upsert(ctx, credential(now.Add(-time.Minute))); err != nil {
			t.Fatalf("failed to seed credential: %v", err)
		}

		client := &tu.MockPlaybackClient{Grant: &models.Grant{AccessToken: "fresh", ExpiresIn: time.Hour}}
		guard := NewGuard(repo, client, WithClock(fixedClock))

		if _, err := guard.AccessToken(ctx, "user1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		stored, err := repo.Get(ctx, "user1")
		if err != nil {
			t.Fatalf("failed to read back credential: %v", err)
		}
		if stored.AccessToken != "fresh" || !stored.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Errorf("unexpected stored credential %+v", stored)
		}
	})
}

// slowRefresher blocks until its context is done.
type slowRefresher struct{}

func (slowRefresher) RefreshAccessToken(ctx context.Context, _ string) (*models.Grant, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
