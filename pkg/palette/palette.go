package palette

import(
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"
)

var(
	// DefaultHexColors is the base color for each exposure group, in order.
	DefaultHexColors = []string{
		"#ee6352", // bittersweet red
		"#59cd90", // emerald
		"#3fa7d6", // picton blue
		"#fac05e", // xanthous yellow
		"#f79d84", // atomic tangerine
		"#a3c4f3", // periwinkle
		"#b39ddb", // lavender
		"#6a0136", // tyrian purple
	}

	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{R: 0, G: 0, B: 0}
)

const(
	DefaultTolerance = 50.0 // ms; a group spans at most this much from its first value
	DefaultGroupSize = 3
)

// A Tint is the color scale applied to a layer card. The RGB part is a
// float color in [0,1], A is the layer opacity.
type Tint struct {
	hdrcolor.RGB
	A float64
}

func White(alpha float64) Tint {
	return Tint{RGB: hdrcolor.RGB{R: 1, G: 1, B: 1}, A: alpha}
}

// RGBA implements color.Color, premultiplied by A.
func (t Tint)RGBA() (r, g, b, a uint32) {
	fr, fg, fb, _ := t.RGB.HDRRGBA()
	alpha := clamp01(t.A)
	a = uint32(alpha * 0xffff)
	r = uint32(clamp01(fr) * alpha * 0xffff)
	g = uint32(clamp01(fg) * alpha * 0xffff)
	b = uint32(clamp01(fb) * alpha * 0xffff)
	return
}

// Luminance is the CIE Y of the tint's color, ignoring A.
func (t Tint)Luminance() float64 {
	xyz := hdrcolor.XYZModel.Convert(t.RGB)
	_, y, _, _ := xyz.(hdrcolor.Color).HDRXYZA()
	return y
}

// Ink is the text color that reads best on top of the tint.
func (t Tint)Ink() hdrcolor.RGB {
	if t.Luminance() > 0.4 {
		return hdrcolor.RGB{R: 0, G: 0, B: 0}
	}
	return hdrcolor.RGB{R: 1, G: 1, B: 1}
}

func (t Tint)String() string {
	return fmt.Sprintf("Tint[%.3f, %.3f, %.3f, a=%.2f]", t.R, t.G, t.B, t.A)
}

func tintFrom(c colorful.Color, alpha float64) Tint {
	return Tint{RGB: hdrcolor.RGB{R: c.R, G: c.G, B: c.B}, A: alpha}
}

// An Assigner maps exposure times onto palette colors. Close exposure times
// share a group (and a base color); within a group the lower values are
// lighter and the higher ones darker.
type Assigner struct {
	Colors    []colorful.Color
	Tolerance float64
	GroupSize int
}

func NewAssigner(hexColors []string) (Assigner, error) {
	a := Assigner{Tolerance: DefaultTolerance, GroupSize: DefaultGroupSize}
	for _, h := range hexColors {
		c, err := colorful.Hex(h)
		if err != nil {
			return a, fmt.Errorf("palette color '%s': %v", h, err)
		}
		a.Colors = append(a.Colors, c)
	}
	if len(a.Colors) == 0 {
		return a, fmt.Errorf("palette has no colors")
	}
	return a, nil
}

func DefaultAssigner() Assigner {
	a, err := NewAssigner(DefaultHexColors)
	if err != nil {
		panic(err)
	}
	return a
}

// Group sorts and de-duplicates the exposure times, and walks them
// greedily: a value joins the current group while it is within Tolerance
// of the group's first value and the group is not full.
func (a Assigner)Group(exposures []float64) [][]float64 {
	distinct := map[float64]bool{}
	sorted := []float64{}
	for _, e := range exposures {
		if !distinct[e] {
			distinct[e] = true
			sorted = append(sorted, e)
		}
	}
	sort.Float64s(sorted)

	groups := [][]float64{}
	curr := []float64{}
	for _, e := range sorted {
		if len(curr) == 0 {
			curr = []float64{e}
		} else if e - curr[0] <= a.Tolerance && len(curr) < a.GroupSize {
			curr = append(curr, e)
		} else {
			groups = append(groups, curr)
			curr = []float64{e}
		}
	}
	if len(curr) > 0 {
		groups = append(groups, curr)
	}
	return groups
}

// A Table is the color for every exposure time in a stack.
type Table struct {
	Colors  map[float64]Tint
	Opacity float64
}

// Assign builds the color table for a set of exposure times.
func (a Assigner)Assign(exposures []float64, opacity float64) Table {
	t := Table{Colors: map[float64]Tint{}, Opacity: opacity}

	for i, group := range a.Group(exposures) {
		base := a.Colors[i % len(a.Colors)]
		light := base.BlendRgb(white, 0.5)
		dark := base.BlendRgb(black, 0.5)

		switch len(group) {
		case 1:
			t.Colors[group[0]] = tintFrom(base, opacity)
		case 2:
			t.Colors[group[0]] = tintFrom(light, opacity)
			t.Colors[group[1]] = tintFrom(dark, opacity)
		default:
			t.Colors[group[0]] = tintFrom(light, opacity)
			for _, e := range group[1:len(group)-1] {
				t.Colors[e] = tintFrom(base, opacity)
			}
			t.Colors[group[len(group)-1]] = tintFrom(dark, opacity)
		}
	}

	return t
}

// Lookup returns the tint for an exposure time; unknown (or missing)
// exposures are white.
func (t Table)Lookup(exposure *float64) Tint {
	if exposure != nil {
		if c, ok := t.Colors[*exposure]; ok {
			return c
		}
	}
	return White(t.Opacity)
}

// Exposures lists the table's exposure times in ascending order.
func (t Table)Exposures() []float64 {
	ret := make([]float64, 0, len(t.Colors))
	for e := range t.Colors {
		ret = append(ret, e)
	}
	sort.Float64s(ret)
	return ret
}

func clamp01(f float64) float64 {
	if f < 0 { return 0 }
	if f > 1 { return 1 }
	return f
}
