package palette

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// WorkingSize is the longest edge, in pixels, that quantization runs on.
const WorkingSize = 64

// Extractor produces a palette of n colours from encoded image bytes.
type Extractor interface {
	Extract(data []byte, n int) (models.Palette, error)
}

// ExtractorFunc adapts a function to [Extractor].
type ExtractorFunc func(data []byte, n int) (models.Palette, error)

func (f ExtractorFunc) Extract(data []byte, n int) (models.Palette, error) {
	return f(data, n)
}

// MedianCut is the default [Extractor].
var MedianCut Extractor = ExtractorFunc(Extract)

// Extract decodes data and returns exactly n representative colours.
func Extract(data []byte, n int) (models.Palette, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: colour count must be positive, got %d", shared.ErrInvalidArgument, n)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadImage, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", shared.ErrBadImage)
	}

	img := downsample(src)

	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	reduced := q.Quantize(make(color.Palette, 0, n), img)
	if len(reduced) == 0 {
		return nil, fmt.Errorf("%w: quantization produced no colours", shared.ErrBadImage)
	}

	return pad(rank(img, reduced), n), nil
}

// downsample scales src so its longest edge is at most [WorkingSize].
func downsample(src image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if w > WorkingSize || h > WorkingSize {
		if w >= h {
			h = max(1, h*WorkingSize/w)
			w = WorkingSize
		} else {
			w = max(1, w*WorkingSize/h)
			h = WorkingSize
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

type bucket struct {
	c     models.Color
	count int
}

// rank orders the quantized colours by the number of pixels nearest to each.
func rank(img *image.RGBA, p color.Palette) models.Palette {
	buckets := make([]bucket, 0, len(p))
	index := make(map[models.Color]int, len(p))
	for _, c := range p {
		mc := toColor(c)
		if _, ok := index[mc]; ok {
			continue
		}
		index[mc] = len(buckets)
		buckets = append(buckets, bucket{c: mc})
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.RGBAAt(x, y)
			buckets[nearest(buckets, px)].count++
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].c.Hex() < buckets[j].c.Hex()
	})

	out := make(models.Palette, len(buckets))
	for i, bk := range buckets {
		out[i] = bk.c
	}
	return out
}

func nearest(buckets []bucket, px color.RGBA) int {
	best, bestDist := 0, -1
	for i, bk := range buckets {
		dr := int(bk.c.R) - int(px.R)
		dg := int(bk.c.G) - int(px.G)
		db := int(bk.c.B) - int(px.B)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// pad cycles p until it has exactly n entries, or truncates it.
func pad(p models.Palette, n int) models.Palette {
	out := make(models.Palette, n)
	for i := range out {
		out[i] = p[i%len(p)]
	}
	return out
}

func toColor(c color.Color) models.Color {
	r, g, b, _ := color.RGBAModel.Convert(c).RGBA()
	return models.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// Spectrum is the rainbow bar sequence: 21 fully saturated hues from 0° to 300°.
func Spectrum() models.Palette {
	out := make(models.Palette, 0, 21)
	for h := 0.0; h <= 300; h += 15 {
		out = append(out, models.FromColorful(colorful.Hsv(h, 1, 1)))
	}
	return out
}

// FallbackPalette returns n colours from [Spectrum] for renders without artwork.
func FallbackPalette(n int) models.Palette {
	if n <= 0 {
		return models.Palette{}
	}
	return pad(Spectrum(), n)
}
