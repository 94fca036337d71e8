package emath

// 3D helpers for the stack scene and the orbit camera

import(
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func Deg2Rad(d float64) float64 { return d * math.Pi / 180.0 }

// Spherical returns the offset from an orbit target, for a camera at
// distance `dist`, heading `headingDeg` (about Z, 0 looking along +Y) and
// pitch `pitchDeg` (above the XY plane).
func Spherical(headingDeg, pitchDeg, dist float64) r3.Vec {
	h, p := Deg2Rad(headingDeg), Deg2Rad(pitchDeg)
	return r3.Vec{
		X: dist * math.Cos(p) * math.Sin(h),
		Y: dist * math.Cos(p) * math.Cos(h),
		Z: dist * math.Sin(p),
	}
}

// A Box is an axis aligned bounding box. The zero Box is empty.
type Box struct {
	Min, Max r3.Vec
	valid    bool
}

func (b Box)Empty() bool { return !b.valid }

func (b Box)String() string {
	if !b.valid {
		return "Box[empty]"
	}
	return fmt.Sprintf("Box[(%.3f,%.3f,%.3f)-(%.3f,%.3f,%.3f)]",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// Grow extends the box to include p.
func (b Box)Grow(p r3.Vec) Box {
	if !b.valid {
		return Box{Min: p, Max: p, valid: true}
	}
	b.Min = r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
	b.Max = r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	return b
}

func (b Box)Union(o Box) Box {
	if !o.valid {
		return b
	}
	return b.Grow(o.Min).Grow(o.Max)
}

// Translate moves the whole box by d.
func (b Box)Translate(d r3.Vec) Box {
	if !b.valid {
		return b
	}
	return Box{Min: r3.Add(b.Min, d), Max: r3.Add(b.Max, d), valid: true}
}

func (b Box)Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}
