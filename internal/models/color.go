package models

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Colorful converts c for perceptual colour math.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Luminance is the CIE L* lightness in [0, 1].
func (c Color) Luminance() float64 {
	l, _, _ := c.Colorful().Lab()
	return l
}

// FromColorful clamps and converts a colorful.Color.
func FromColorful(cc colorful.Color) Color {
	r, g, b := cc.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// Palette is an ordered set of representative colours.
type Palette []Color

// At returns the colour for index i, wrapping around the palette.
func (p Palette) At(i int) Color {
	if len(p) == 0 {
		return Color{}
	}
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}

// Hex returns every colour as "#rrggbb".
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}
