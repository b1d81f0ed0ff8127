// Spotify implementation of [PlaybackClient], [Authorizer] and [ScanCoder]
//
// Web API calls go through github.com/zmb3/spotify/v2; token grants go through [oauth2].
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1/"
	scanCodeBaseURL = "https://scannables.scdn.co/uri/plain/png/000000/white/640/"

	// maxImageBytes caps artwork and scan code downloads.
	maxImageBytes = 8 << 20

	// DefaultTokenLifetime applies when a token response omits expires_in.
	DefaultTokenLifetime = time.Hour
)

// DefaultScopes are the permissions the badge needs to read playback.
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
}

// SpotifyService talks to the Spotify accounts service and Web API.
type SpotifyService struct {
	config      *oauth2.Config
	httpClient  *http.Client
	apiBaseURL  string
	scanCodeURL string
	limiter     *rate.Limiter
	logger      *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithScopes overrides [DefaultScopes].
func WithScopes(scopes ...string) SpotifyOption {
	return func(s *SpotifyService) {
		if len(scopes) > 0 {
			s.config.Scopes = scopes
		}
	}
}

// WithEndpoints points the service at alternative accounts and API hosts.
//
// Empty values keep the production URLs.
func WithEndpoints(authURL, tokenURL, apiBaseURL string) SpotifyOption {
	return func(s *SpotifyService) {
		if authURL != "" {
			s.config.Endpoint.AuthURL = authURL
		}
		if tokenURL != "" {
			s.config.Endpoint.TokenURL = tokenURL
		}
		if apiBaseURL != "" {
			s.apiBaseURL = strings.TrimSuffix(apiBaseURL, "/") + "/"
		}
	}
}

// WithScanCodeURL overrides the scannable code image host.
func WithScanCodeURL(base string) SpotifyOption {
	return func(s *SpotifyService) {
		if base != "" {
			s.scanCodeURL = strings.TrimSuffix(base, "/") + "/"
		}
	}
}

// WithHTTPClient sets the client used for every outbound request.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithRateLimit throttles outbound requests to rps per second. Zero disables throttling.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		} else {
			s.limiter = nil
		}
	}
}

// WithServiceLogger sets the logger used for request diagnostics.
func WithServiceLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       DefaultScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  spotifyTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	s := &SpotifyService{
		config:      config,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		apiBaseURL:  spotifyBaseURL,
		scanCodeURL: scanCodeBaseURL,
		logger:      shared.WithLogger(log.Default(), "service", "spotify"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a grant.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*models.Grant, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code is empty", shared.ErrAuthFailed)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	tok, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}

	return grantFromToken(tok), nil
}

// RefreshAccessToken performs the refresh-token grant.
//
// Any transport failure or non-success status is reported as [shared.ErrRefreshFailed].
func (s *SpotifyService) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.Grant, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is empty", shared.ErrRefreshFailed)
	}
	if err := s.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	stale := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	tok, err := s.config.TokenSource(s.oauthContext(ctx), stale).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	g := grantFromToken(tok)
	if g.RefreshToken == refreshToken {
		g.RefreshToken = ""
	}
	return g, nil
}

// CurrentlyPlaying returns the active track, or (nil, nil) when nothing is playing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context, accessToken string) (*models.TrackSnapshot, error) {
	client, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	playing, err := client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: currently playing: %v", shared.ErrFetchFailed, err)
	}
	if playing == nil || playing.Item == nil {
		return nil, nil
	}

	return snapshotFromTrack(playing.Item), nil
}

// RecentlyPlayed returns the most recent track from the play history.
//
// History entries carry a simplified track without album art, so the full track is looked up by id.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, accessToken string) (*models.TrackSnapshot, error) {
	client, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	items, err := client.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("%w: recently played: %v", shared.ErrFetchFailed, err)
	}
	if len(items) == 0 {
		return nil, shared.ErrNoHistory
	}

	recent := items[0].Track
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	full, err := client.GetTrack(ctx, recent.ID)
	if err != nil {
		s.logger.Warn("track lookup failed, rendering without artwork", "track", recent.ID, "error", err)
		return &models.TrackSnapshot{
			TrackName:   recent.Name,
			ArtistNames: artistNames(recent.Artists),
			TrackURI:    string(recent.URI),
		}, nil
	}

	return snapshotFromTrack(full), nil
}

// UserID resolves the account id that owns accessToken.
func (s *SpotifyService) UserID(ctx context.Context, accessToken string) (string, error) {
	client, err := s.client(ctx, accessToken)
	if err != nil {
		return "", err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: current user: %v", shared.ErrAuthFailed, err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile has no id", shared.ErrAuthFailed)
	}
	return user.ID, nil
}

// FetchImage downloads raw image bytes from url.
func (s *SpotifyService) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty image url", shared.ErrFetchFailed)
	}
	if err := s.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrFetchFailed, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrFetchFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", shared.ErrFetchFailed, err)
	}
	return data, nil
}

// ScanCodeURL returns the scannable code image for a track uri.
func (s *SpotifyService) ScanCodeURL(uri string) string {
	if uri == "" {
		return ""
	}
	return s.scanCodeURL + uri
}

// client builds a Web API client bound to a single access token.
func (s *SpotifyService) client(ctx context.Context, accessToken string) (*spotify.Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is empty", shared.ErrNoCredential)
	}
	if err := s.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(s.oauthContext(ctx), ts)

	return spotify.New(httpClient, spotify.WithBaseURL(s.apiBaseURL)), nil
}

// oauthContext makes oauth2 use the configured HTTP client.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *SpotifyService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func grantFromToken(tok *oauth2.Token) *models.Grant {
	g := &models.Grant{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}

	switch v := tok.Extra("expires_in").(type) {
	case float64:
		g.ExpiresIn = time.Duration(v) * time.Second
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			g.ExpiresIn = time.Duration(n) * time.Second
		}
	}
	if g.ExpiresIn <= 0 && !tok.Expiry.IsZero() {
		g.ExpiresIn = time.Until(tok.Expiry).Round(time.Second)
	}
	if g.ExpiresIn <= 0 {
		g.ExpiresIn = DefaultTokenLifetime
	}
	return g
}

func snapshotFromTrack(t *spotify.FullTrack) *models.TrackSnapshot {
	return &models.TrackSnapshot{
		TrackName:   t.Name,
		ArtistNames: artistNames(t.Artists),
		ArtworkURL:  artworkURL(t.Album.Images),
		TrackURI:    string(t.URI),
	}
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// artworkURL prefers the second (medium) image and falls back to the first.
func artworkURL(images []spotify.Image) string {
	switch {
	case len(images) > 1:
		return images[1].URL
	case len(images) == 1:
		return images[0].URL
	default:
		return ""
	}
}
