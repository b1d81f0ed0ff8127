// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// MemoryStore is an in-memory credential store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[string]models.Credential
	Err     error // returned from every call when set
	Upserts atomic.Int32
}

func NewMemoryStore(creds ...*models.Credential) *MemoryStore {
	s := &MemoryStore{rows: make(map[string]models.Credential)}
	for _, c := range creds {
		s.rows[c.UserID] = *c
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.rows[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.rows[cred.UserID] = *cred
	s.Upserts.Add(1)
	return nil
}

// MockPlaybackClient is a test double for [services.PlaybackClient].
//
// Zero-value fields mean "nothing playing" and "no history".
type MockPlaybackClient struct {
	mu sync.Mutex

	Grant      *models.Grant
	RefreshErr error
	// RefreshGate, when set, blocks RefreshAccessToken until it is closed.
	RefreshGate chan struct{}

	Playing    *models.TrackSnapshot
	PlayingErr error
	Recent     *models.TrackSnapshot
	RecentErr  error

	Images   map[string][]byte
	ImageErr error

	RefreshCalls atomic.Int32
	PlayingCalls atomic.Int32
	RecentCalls  atomic.Int32
	ImageCalls   atomic.Int32
	TokensSeen   []string
}

func (m *MockPlaybackClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.Grant, error) {
	m.RefreshCalls.Add(1)
	if m.RefreshGate != nil {
		<-m.RefreshGate
	}
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	if m.Grant == nil {
		return &models.Grant{AccessToken: "refreshed", ExpiresIn: time.Hour}, nil
	}
	g := *m.Grant
	return &g, nil
}

func (m *MockPlaybackClient) CurrentlyPlaying(ctx context.Context, accessToken string) (*models.TrackSnapshot, error) {
	m.PlayingCalls.Add(1)
	m.seen(accessToken)
	return m.Playing, m.PlayingErr
}

func (m *MockPlaybackClient) RecentlyPlayed(ctx context.Context, accessToken string) (*models.TrackSnapshot, error) {
	m.RecentCalls.Add(1)
	m.seen(accessToken)
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	if m.Recent == nil {
		return nil, shared.ErrNoHistory
	}
	return m.Recent, nil
}

func (m *MockPlaybackClient) FetchImage(ctx context.Context, url string) ([]byte, error) {
	m.ImageCalls.Add(1)
	if m.ImageErr != nil {
		return nil, m.ImageErr
	}
	data, ok := m.Images[url]
	if !ok {
		return nil, fmt.Errorf("%w: no fixture for %s", shared.ErrFetchFailed, url)
	}
	return data, nil
}

// ScanCodeURL mirrors the production layout so fixtures can be keyed by it.
func (m *MockPlaybackClient) ScanCodeURL(uri string) string {
	if uri == "" {
		return ""
	}
	return "scan://" + uri
}

func (m *MockPlaybackClient) seen(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TokensSeen = append(m.TokensSeen, token)
}

// MockAuthorizer is a test double for [services.Authorizer].
type MockAuthorizer struct {
	Grant       *models.Grant
	ExchangeErr error
	User        string
	UserErr     error
	Codes       []string
}

func (m *MockAuthorizer) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockAuthorizer) Exchange(ctx context.Context, code string) (*models.Grant, error) {
	m.Codes = append(m.Codes, code)
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.Grant, nil
}

func (m *MockAuthorizer) UserID(ctx context.Context, accessToken string) (string, error) {
	return m.User, m.UserErr
}

// SolidPNG encodes a w×h image filled with c.
func SolidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(t, img)
}

// StripedPNG encodes a w×h image split into vertical stripes, one per colour.
func StripedPNG(t *testing.T, w, h int, colors ...color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, colors[x*len(colors)/w])
		}
	}
	return encodePNG(t, img)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
