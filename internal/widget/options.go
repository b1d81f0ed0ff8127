package widget

import (
	"net/url"
	"strings"

	"github.com/desertthunder/nowplaying/internal/shared"
)

// Query parameter names for render options.
const (
	ParamSpin    = "spin"
	ParamScan    = "scan"
	ParamTheme   = "theme"
	ParamRainbow = "rainbow"
)

// Options are the display toggles carried on the render URL.
type Options struct {
	Spin         bool
	ShowScanCode bool
	Theme        string
	Rainbow      bool
}

// ParseOptions reads render options from query values.
//
// A flag is on when present and not "false" or "0".
func ParseOptions(q url.Values) Options {
	flag := func(key string) bool {
		_, ok := q[key]
		return shared.FlagEnabled(q.Get(key), ok)
	}

	return Options{
		Spin:         flag(ParamSpin),
		ShowScanCode: flag(ParamScan),
		Theme:        strings.ToLower(strings.TrimSpace(q.Get(ParamTheme))),
		Rainbow:      flag(ParamRainbow),
	}
}

// Query encodes the options so they survive a redirect.
//
// Only enabled flags are written.
func (o Options) Query() url.Values {
	q := url.Values{}
	if o.Spin {
		q.Set(ParamSpin, "true")
	}
	if o.ShowScanCode {
		q.Set(ParamScan, "true")
	}
	if o.Theme != "" {
		q.Set(ParamTheme, o.Theme)
	}
	if o.Rainbow {
		q.Set(ParamRainbow, "true")
	}
	return q
}

// Theme is a named colour scheme for the badge background and text.
type Theme struct {
	Name       string
	Background string
	Text       string
	Subtext    string
}

var themes = map[string]Theme{
	"dark":  {Name: "dark", Background: "#181414", Text: "#ffffff", Subtext: "#b3b3b3"},
	"light": {Name: "light", Background: "#ffffff", Text: "#121212", Subtext: "#535353"},
}

// DefaultTheme is used when no theme or an unknown theme is requested.
const DefaultTheme = "dark"

// ThemeNamed returns the theme called name, then fallback, then [DefaultTheme].
func ThemeNamed(name, fallback string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	if t, ok := themes[fallback]; ok {
		return t
	}
	return themes[DefaultTheme]
}
