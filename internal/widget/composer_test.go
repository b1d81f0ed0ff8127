package widget

import (
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/palette"
)

var fillPattern = regexp.MustCompile(`<rect class="bar"[^>]*fill="(#[0-9a-f]{6})"`)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(WithJitter(func() int { return 600 }))
	if err != nil {
		t.Fatalf("failed to create composer: %v", err)
	}
	return c
}

func testTrack() *models.TrackSnapshot {
	return &models.TrackSnapshot{
		TrackName:   "Song <Live>",
		ArtistNames: []string{"Artist A", "Artist B"},
		TrackURI:    "spotify:track:abc",
	}
}

func barFills(t *testing.T, doc string) []string {
	t.Helper()
	var fills []string
	for _, m := range fillPattern.FindAllStringSubmatch(doc, -1) {
		fills = append(fills, m[1])
	}
	return fills
}

func TestCompose(t *testing.T) {
	pal := models.Palette{{R: 255}, {G: 255}, {B: 255}, {R: 10, G: 20, B: 30}, {R: 200, G: 100, B: 50}}

	t.Run("Bars Index Into Palette", func(t *testing.T) {
		out, err := newTestComposer(t).Compose(Input{Track: testTrack(), Palette: pal})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		fills := barFills(t, string(out))
		if len(fills) != BarCount(false) {
			t.Fatalf("expected %d bars, got %d", BarCount(false), len(fills))
		}
		for i, f := range fills {
			if want := pal.At(i).Hex(); f != want {
				t.Errorf("bar %d: expected %s, got %s", i, want, f)
			}
		}
	})

	t.Run("Text Is Escaped", func(t *testing.T) {
		out, _ := newTestComposer(t).Compose(Input{Track: testTrack(), Palette: pal})
		doc := string(out)

		if !strings.Contains(doc, ">Artist A &amp; Artist B<") {
			t.Error("expected escaped artist line")
		}
		if !strings.Contains(doc, "Song &lt;Live&gt;") {
			t.Error("expected escaped song name")
		}
	})

	t.Run("Scan Code", func(t *testing.T) {
		c := newTestComposer(t)

		out, _ := c.Compose(Input{Track: testTrack(), Palette: pal, Options: Options{ShowScanCode: true}})
		doc := string(out)
		if !strings.Contains(doc, `class="scan-code"`) {
			t.Error("expected scan code overlay")
		}
		if n := len(barFills(t, doc)); n != BarCount(true) {
			t.Errorf("expected %d bars with scan code, got %d", BarCount(true), n)
		}

		noURI := testTrack()
		noURI.TrackURI = ""
		out, err := c.Compose(Input{Track: noURI, Palette: pal, Options: Options{ShowScanCode: true}})
		if err != nil {
			t.Fatalf("expected no error without uri, got %v", err)
		}
		if strings.Contains(string(out), `class="scan-code"`) {
			t.Error("scan code must be omitted when the track has no uri")
		}

		out, _ = c.Compose(Input{Track: testTrack(), Palette: pal})
		if strings.Contains(string(out), `class="scan-code"`) {
			t.Error("scan code must be omitted when not requested")
		}
	})

	t.Run("Offline", func(t *testing.T) {
		out, err := newTestComposer(t).Compose(Input{Track: models.OfflineSnapshot()})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		doc := string(out)

		if !strings.Contains(doc, ">"+models.OfflineLabel+"<") {
			t.Error("expected offline label")
		}
		if strings.Contains(doc, `class="artist"`) {
			t.Error("offline badge must not have an artist line")
		}
		if !strings.Contains(doc, `class="bars rainbow"`) {
			t.Error("offline badge must use rainbow mode")
		}

		spectrum := palette.Spectrum()
		for i, f := range barFills(t, doc) {
			if f != spectrum.At(i).Hex() {
				t.Errorf("bar %d: expected spectrum colour, got %s", i, f)
			}
		}
	})

	t.Run("Rainbow Ignores Palette", func(t *testing.T) {
		out, _ := newTestComposer(t).Compose(Input{Track: testTrack(), Palette: pal, Options: Options{Rainbow: true}})
		fills := barFills(t, string(out))
		if fills[0] != "#ff0000" || fills[1] != "#ff4000" {
			t.Errorf("expected spectrum fills, got %v", fills[:2])
		}
	})

	t.Run("Artwork And Placeholder", func(t *testing.T) {
		c := newTestComposer(t)

		out, _ := c.Compose(Input{Track: testTrack(), Palette: pal})
		if !strings.Contains(string(out), `href="data:image/svg+xml;base64,`) {
			t.Error("expected placeholder artwork data uri")
		}

		png := []byte("\x89PNG\r\n\x1a\n0000")
		out, _ = c.Compose(Input{Track: testTrack(), Palette: pal, Artwork: png})
		if !strings.Contains(string(out), `href="data:image/png;base64,`) {
			t.Error("expected png artwork data uri")
		}
	})

	t.Run("Spin And Theme", func(t *testing.T) {
		out, _ := newTestComposer(t).Compose(Input{Track: testTrack(), Palette: pal, Options: Options{Spin: true, Theme: "light"}})
		doc := string(out)
		if !strings.Contains(doc, `class="artwork spin"`) {
			t.Error("expected spinning artwork")
		}
		if !strings.Contains(doc, `fill="#ffffff"`) {
			t.Error("expected light background")
		}
	})

	t.Run("Jitter Range", func(t *testing.T) {
		c, err := NewComposer()
		if err != nil {
			t.Fatalf("failed to create composer: %v", err)
		}
		for i := 0; i < 200; i++ {
			if d := c.jitter(); d < minBarMillis || d > maxBarMillis {
				t.Fatalf("duration %d outside [%d, %d]", d, minBarMillis, maxBarMillis)
			}
		}
	})

	t.Run("Well Formed", func(t *testing.T) {
		out, _ := newTestComposer(t).Compose(Input{Track: testTrack(), Palette: pal, Options: Options{ShowScanCode: true}})
		doc := string(out)
		if !strings.HasPrefix(doc, "<svg") || !strings.HasSuffix(strings.TrimSpace(doc), "</svg>") {
			t.Errorf("unexpected document framing")
		}
	})
}

func TestOptions(t *testing.T) {
	t.Run("ParseOptions", func(t *testing.T) {
		q, _ := url.ParseQuery("spin&scan=0&rainbow=true&theme=Light")
		o := ParseOptions(q)
		if !o.Spin || o.ShowScanCode || !o.Rainbow || o.Theme != "light" {
			t.Errorf("unexpected options %+v", o)
		}
	})

	t.Run("Query Round Trip", func(t *testing.T) {
		o := Options{Spin: true, ShowScanCode: true, Theme: "light"}
		if got := ParseOptions(o.Query()); got != o {
			t.Errorf("round trip = %+v, want %+v", got, o)
		}
		if len((Options{}).Query()) != 0 {
			t.Error("zero options should encode to an empty query")
		}
	})

	t.Run("ThemeNamed", func(t *testing.T) {
		if ThemeNamed("light", "dark").Name != "light" {
			t.Error("expected light theme")
		}
		if ThemeNamed("neon", "light").Name != "light" {
			t.Error("expected fallback theme")
		}
		if ThemeNamed("", "").Name != DefaultTheme {
			t.Error("expected default theme")
		}
	})
}
