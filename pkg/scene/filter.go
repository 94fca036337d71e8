package scene

import(
	"fmt"
	"sort"

	"github.com/abworrall/slicestack/pkg/raster"
)

// RenderFilterState is a snapshot of every user switch that affects what
// the scene shows. It is a value; the With* methods return modified copies,
// so a batch in flight keeps the snapshot it started with.
type RenderFilterState struct {
	raster.Mode

	disabledTypes     map[string]bool
	disabledExposures map[float64]bool
}

// DefaultFilter shows every image type and exposure.
func DefaultFilter() RenderFilterState {
	return RenderFilterState{Mode: raster.DefaultMode()}
}

func (f RenderFilterState)String() string {
	str := f.Mode.String()
	if len(f.disabledTypes) > 0 {
		types := []string{}
		for t := range f.disabledTypes { types = append(types, t) }
		sort.Strings(types)
		str += fmt.Sprintf(" -types%v", types)
	}
	if len(f.disabledExposures) > 0 {
		exps := []float64{}
		for e := range f.disabledExposures { exps = append(exps, e) }
		sort.Float64s(exps)
		str += fmt.Sprintf(" -exposures%v", exps)
	}
	return str
}

func (f RenderFilterState)TypeEnabled(t string) bool { return !f.disabledTypes[t] }

// ExposureEnabled is always true for images with no exposure time.
func (f RenderFilterState)ExposureEnabled(e *float64) bool {
	return e == nil || !f.disabledExposures[*e]
}

func (f RenderFilterState)WithType(t string, enabled bool) RenderFilterState {
	m := map[string]bool{}
	for k, v := range f.disabledTypes { m[k] = v }
	if enabled {
		delete(m, t)
	} else {
		m[t] = true
	}
	f.disabledTypes = m
	return f
}

func (f RenderFilterState)WithExposure(e float64, enabled bool) RenderFilterState {
	m := map[float64]bool{}
	for k, v := range f.disabledExposures { m[k] = v }
	if enabled {
		delete(m, e)
	} else {
		m[e] = true
	}
	f.disabledExposures = m
	return f
}

func (f RenderFilterState)WithMode(m raster.Mode) RenderFilterState {
	f.Mode = m
	return f
}

// TexturesDiffer reports whether switching from f to g changes any
// rendered texture (as opposed to just which cards are shown).
func (f RenderFilterState)TexturesDiffer(g RenderFilterState) bool {
	return f.Mode != g.Mode
}
