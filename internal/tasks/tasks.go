// package tasks implements the badge render pipeline.
//
// The core abstraction is Renderer, which turns a user id and display options into a finished badge.
// Renders emit progress updates via channels for non-blocking status reporting to the CLI.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/palette"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/widget"
	"golang.org/x/sync/errgroup"
)

// DefaultPaletteSize is the number of colours extracted per render.
const DefaultPaletteSize = 8

// Badge is a rendered badge and the inputs that shaped it.
type Badge struct {
	SVG      []byte
	Track    *models.TrackSnapshot
	Palette  models.Palette
	Degraded bool // true when the fallback palette and rainbow mode were used
}

// Renderer defines the badge render operation.
type Renderer interface {
	// Render produces the badge for userID.
	//
	// Authentication and store failures are returned; cosmetic failures degrade the badge instead.
	Render(ctx context.Context, userID string, opts widget.Options, progress chan<- ProgressUpdate) (*Badge, error)
}

// TokenSource hands out valid access tokens.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// Playback is the playback client plus scan code addressing.
type Playback interface {
	services.PlaybackClient
	services.ScanCoder
}

// BadgeEngine implements Renderer.
type BadgeEngine struct {
	tokens      TokenSource
	playback    Playback
	composer    *widget.Composer
	extractor   palette.Extractor
	paletteSize int
	logger      *log.Logger
}

// EngineOption configures a [BadgeEngine].
type EngineOption func(*BadgeEngine)

// WithExtractor replaces the median-cut palette extractor.
func WithExtractor(x palette.Extractor) EngineOption {
	return func(e *BadgeEngine) {
		if x != nil {
			e.extractor = x
		}
	}
}

// WithPaletteSize sets how many colours are extracted per render.
func WithPaletteSize(n int) EngineOption {
	return func(e *BadgeEngine) {
		if n > 0 {
			e.paletteSize = n
		}
	}
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l *log.Logger) EngineOption {
	return func(e *BadgeEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewBadgeEngine creates a new BadgeEngine with the provided collaborators.
func NewBadgeEngine(tokens TokenSource, playback Playback, composer *widget.Composer, opts ...EngineOption) *BadgeEngine {
	e := &BadgeEngine{
		tokens:      tokens,
		playback:    playback,
		composer:    composer,
		extractor:   palette.MedianCut,
		paletteSize: DefaultPaletteSize,
		logger:      shared.WithLogger(log.Default(), "component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *BadgeEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Render runs token check, playback lookup, artwork and palette, then composition.
func (e *BadgeEngine) Render(ctx context.Context, userID string, opts widget.Options, progress chan<- ProgressUpdate) (*Badge, error) {
	if e.tokens == nil || e.playback == nil || e.composer == nil {
		return nil, fmt.Errorf("%w: badge engine not initialized", shared.ErrNotImplemented)
	}

	logger := e.logger.With("user", userID)

	e.sendProgress(progress, authorizeUpdate(userID))
	accessToken, err := e.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	track := e.track(ctx, logger, accessToken, progress)

	var (
		artwork  []byte
		scanCode []byte
		pal      models.Palette
	)

	showScan := opts.ShowScanCode && track.TrackURI != ""

	var g errgroup.Group
	g.Go(func() error {
		artwork, pal = e.artwork(ctx, logger, track, progress)
		return nil
	})
	if showScan {
		g.Go(func() error {
			scanCode = e.scanCode(ctx, logger, track.TrackURI, progress)
			return nil
		})
	}
	_ = g.Wait()

	degraded := len(pal) == 0
	if degraded {
		pal = palette.FallbackPalette(e.paletteSize)
		opts.Rainbow = true
	}

	e.sendProgress(progress, composeUpdate())
	svg, err := e.composer.Compose(widget.Input{
		Track:    track,
		Palette:  pal,
		Options:  opts,
		Artwork:  artwork,
		ScanCode: scanCode,
	})
	if err != nil {
		return nil, err
	}

	return &Badge{SVG: svg, Track: track, Palette: pal, Degraded: degraded}, nil
}

// track returns the playing track, else the most recent one, else the offline snapshot.
func (e *BadgeEngine) track(ctx context.Context, logger *log.Logger, accessToken string, progress chan<- ProgressUpdate) *models.TrackSnapshot {
	e.sendProgress(progress, playbackUpdate())
	track, err := e.playback.CurrentlyPlaying(ctx, accessToken)
	if err != nil {
		logger.Warn("currently playing lookup failed, rendering offline", "error", err)
		return models.OfflineSnapshot()
	}
	if track != nil {
		return track
	}

	e.sendProgress(progress, historyUpdate())
	track, err = e.playback.RecentlyPlayed(ctx, accessToken)
	switch {
	case errors.Is(err, shared.ErrNoHistory):
		return models.OfflineSnapshot()
	case err != nil:
		logger.Warn("recently played lookup failed, rendering offline", "error", err)
		return models.OfflineSnapshot()
	case track == nil:
		return models.OfflineSnapshot()
	}
	return track
}

// artwork fetches the album art and derives its palette.
//
// A nil palette means the badge must degrade to the fallback palette.
func (e *BadgeEngine) artwork(ctx context.Context, logger *log.Logger, track *models.TrackSnapshot, progress chan<- ProgressUpdate) ([]byte, models.Palette) {
	if track.Offline || track.ArtworkURL == "" {
		return nil, nil
	}

	e.sendProgress(progress, artworkUpdate(track))
	data, err := e.playback.FetchImage(ctx, track.ArtworkURL)
	if err != nil || len(data) == 0 {
		logger.Warn("artwork fetch failed, using placeholder", "url", track.ArtworkURL, "error", err)
		return nil, nil
	}

	pal, err := e.extractor.Extract(data, e.paletteSize)
	if err != nil {
		logger.Warn("palette extraction failed, using placeholder", "error", err)
		return nil, nil
	}

	e.sendProgress(progress, paletteUpdate(pal))
	return data, pal
}

// scanCode fetches the scannable code image; nil selects the placeholder.
func (e *BadgeEngine) scanCode(ctx context.Context, logger *log.Logger, uri string, progress chan<- ProgressUpdate) []byte {
	e.sendProgress(progress, scanCodeUpdate(uri))
	data, err := e.playback.FetchImage(ctx, e.playback.ScanCodeURL(uri))
	if err != nil || len(data) == 0 {
		logger.Warn("scan code fetch failed, using placeholder", "uri", uri, "error", err)
		return nil
	}
	return data
}
