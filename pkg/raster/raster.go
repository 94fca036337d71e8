package raster

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/abworrall/slicestack/pkg/mask"
)

// DefaultDownSample is the scale applied to masks in fast (low quality) mode.
const DefaultDownSample = 0.25

// Mode holds the global switches that change the rendered pixels of a mask.
type Mode struct {
	ShowPositive  bool    // exposed pixels drawn, else void pixels drawn
	VoidOnly      bool    // only the void region, in white
	VoidHighlight bool    // only the void region, in translucent blue
	HighQuality   bool    // full resolution, uncompressed
	Opacity       float64 // [0,1]
	DownSample    float64 // fast mode scale; 0 means DefaultDownSample
}

func DefaultMode() Mode {
	return Mode{ShowPositive: true, Opacity: 0.5, DownSample: DefaultDownSample}
}

func (m Mode)String() string {
	str := "positive"
	if !m.ShowPositive { str = "negative" }
	if m.VoidOnly      { str += ",void-only" }
	if m.VoidHighlight { str += ",void-highlight" }
	if m.HighQuality {
		str += ",hq"
	} else {
		str += ",fast"
	}
	return fmt.Sprintf("Mode[%s, opacity %.2f]", str, m.Opacity)
}

// WithVoidOnly and WithVoidHighlight keep the two void modes exclusive.
func (m Mode)WithVoidOnly(on bool) Mode {
	m.VoidOnly = on
	if on { m.VoidHighlight = false }
	return m
}

func (m Mode)WithVoidHighlight(on bool) Mode {
	m.VoidHighlight = on
	if on { m.VoidOnly = false }
	return m
}

func (m Mode)downSampleFactor() int {
	scale := m.DownSample
	if scale <= 0 || scale > 1 {
		scale = DefaultDownSample
	}
	return int(math.Round(1.0 / scale))
}

// A Texture is the RGBA rendering of a mask, ready for upload. Compressed
// is a hint that the graphics side may store it in a compressed format.
type Texture struct {
	*image.RGBA
	Compressed bool
}

func (t Texture)String() string {
	return fmt.Sprintf("Texture[%dx%d, compressed=%v]", t.Bounds().Dx(), t.Bounds().Dy(), t.Compressed)
}

var(
	transparent = color.RGBA{}
	white       = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Rasterize renders a mask under the given mode. It does not modify the
// mask, and its output depends only on its inputs.
func Rasterize(m *mask.Mask, mode Mode) Texture {
	src := m
	if !mode.HighQuality {
		src = m.DownSample(mode.downSampleFactor())
	}

	alpha := uint8(math.Round(255.0 * clamp01(mode.Opacity)))
	blue := color.RGBA{0, 0, alpha, alpha} // premultiplied

	img := image.NewRGBA(image.Rect(0, 0, src.W, src.H))
	for y:=0; y<src.H; y++ {
		for x:=0; x<src.W; x++ {
			v := src.At(x, y)
			c := transparent

			switch {
			case mode.VoidOnly:
				if v == 0 { c = white }
			case mode.VoidHighlight:
				if v == 0 { c = blue }
			case mode.ShowPositive:
				if v > 0 { c = white }
			default:
				if v == 0 { c = white }
			}

			img.SetRGBA(x, y, c)
		}
	}

	return Texture{RGBA: img, Compressed: !mode.HighQuality}
}

func clamp01(f float64) float64 {
	if f < 0 { return 0 }
	if f > 1 { return 1 }
	return f
}
