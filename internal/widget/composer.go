package widget

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"math/rand/v2"
	"net/http"
	"text/template"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/palette"
)

//go:embed templates/badge.svg.tmpl
var badgeTemplate string

//go:embed assets/*.svg
var assets embed.FS

const (
	Width  = 480
	Height = 133

	barSpacing = 12

	// Bar animation durations are drawn from [minBarMillis, maxBarMillis].
	minBarMillis = 500
	maxBarMillis = 750
)

// BarCount is the number of bars drawn with and without a scan code.
func BarCount(scanCode bool) int {
	if scanCode {
		return 10
	}
	return 12
}

// Input is everything one badge render needs.
type Input struct {
	Track    *models.TrackSnapshot
	Palette  models.Palette
	Options  Options
	Artwork  []byte // nil uses the placeholder artwork
	ScanCode []byte // nil uses the placeholder scan code when one is shown
}

// Composer renders badge SVG documents.
type Composer struct {
	tmpl         *template.Template
	defaultTheme string
	jitter       func() int
	placeholder  []byte
	scanCode     []byte
	logo         []byte
}

// ComposerOption configures a [Composer].
type ComposerOption func(*Composer)

// WithDefaultTheme sets the theme used when the request names none.
func WithDefaultTheme(name string) ComposerOption {
	return func(c *Composer) { c.defaultTheme = name }
}

// WithJitter replaces the random bar duration source.
func WithJitter(fn func() int) ComposerOption {
	return func(c *Composer) { c.jitter = fn }
}

// NewComposer parses the badge template and loads the embedded assets.
func NewComposer(opts ...ComposerOption) (*Composer, error) {
	tmpl, err := template.New("badge").Funcs(template.FuncMap{"xml": escapeXML}).Parse(badgeTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse badge template: %w", err)
	}

	c := &Composer{
		tmpl:         tmpl,
		defaultTheme: DefaultTheme,
		jitter:       func() int { return minBarMillis + rand.IntN(maxBarMillis-minBarMillis+1) },
	}

	for name, dst := range map[string]*[]byte{
		"assets/placeholder.svg": &c.placeholder,
		"assets/scancode.svg":    &c.scanCode,
		"assets/logo.svg":        &c.logo,
	} {
		data, err := assets.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load asset %s: %w", name, err)
		}
		*dst = data
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type bar struct {
	X        int
	Fill     string
	Duration int
}

type view struct {
	Width, Height int
	Theme         Theme
	Song          string
	Artist        string
	Artwork       string
	ScanCode      string
	Logo          string
	Spin          bool
	Rainbow       bool
	Bars          []bar
}

// Compose renders in as an SVG document.
//
// An offline track always renders in rainbow mode. A scan code is drawn only when requested and the
// track has a uri.
func (c *Composer) Compose(in Input) ([]byte, error) {
	track := in.Track
	if track == nil {
		track = models.OfflineSnapshot()
	}

	opts := in.Options
	rainbow := opts.Rainbow || track.Offline
	showScan := opts.ShowScanCode && track.TrackURI != ""

	v := view{
		Width:   Width,
		Height:  Height,
		Theme:   ThemeNamed(opts.Theme, c.defaultTheme),
		Song:    track.TrackName,
		Artist:  track.Artists(),
		Artwork: dataURI(in.Artwork, c.placeholder),
		Logo:    dataURI(c.logo, nil),
		Spin:    opts.Spin,
		Rainbow: rainbow,
		Bars:    c.bars(BarCount(showScan), in.Palette, rainbow),
	}
	if showScan {
		v.ScanCode = dataURI(in.ScanCode, c.scanCode)
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to render badge: %w", err)
	}
	return buf.Bytes(), nil
}

// bars assigns bar i the colour at palette index i, wrapping.
func (c *Composer) bars(n int, p models.Palette, rainbow bool) []bar {
	if rainbow || len(p) == 0 {
		p = palette.Spectrum()
	}

	out := make([]bar, n)
	for i := range out {
		out[i] = bar{X: i * barSpacing, Fill: p.At(i).Hex(), Duration: c.jitter()}
	}
	return out
}

// dataURI inlines data, or fallback when data is empty.
func dataURI(data, fallback []byte) string {
	if len(data) == 0 {
		data = fallback
	}
	if len(data) == 0 {
		return ""
	}
	return "data:" + mimeType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func mimeType(data []byte) string {
	head := bytes.TrimSpace(data[:min(len(data), 256)])
	if bytes.HasPrefix(head, []byte("<svg")) || bytes.HasPrefix(head, []byte("<?xml")) {
		return "image/svg+xml"
	}
	return http.DetectContentType(data)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return ""
	}
	return buf.String()
}
