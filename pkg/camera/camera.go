package camera

import(
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/abworrall/slicestack/pkg/emath"
)

const MaxPitch = 89.0 // degrees

// Settings are the fixed parameters of the orbit camera.
type Settings struct {
	InitialDistance float64  `yaml:"initial_distance"`
	InitialHeading  float64  `yaml:"initial_heading"`  // degrees
	InitialPitch    float64  `yaml:"initial_pitch"`    // degrees
	InitialTarget   r3.Vec   `yaml:"initial_target"`
	MinDistance     float64  `yaml:"min_distance"`
	MaxDistance     float64  `yaml:"max_distance"`
	RotationSpeed   float64  `yaml:"rotation_speed"`   // degrees per unit of normalized pointer travel
	PanSpeed        float64  `yaml:"pan_speed"`        // fraction of distance per unit of pointer travel
	WheelZoom       float64  `yaml:"wheel_zoom"`       // distance multiplier per zoom-in step
}

func DefaultSettings() Settings {
	return Settings{
		InitialDistance: 5000,
		InitialHeading:  45,
		InitialPitch:    35,
		MinDistance:     10,
		MaxDistance:     50000,
		RotationSpeed:   100,
		PanSpeed:        0.5,
		WheelZoom:       0.9,
	}
}

// Controller is an orbit camera: it circles Target at Distance, at the
// given heading and pitch. Pointer positions are in normalized window
// coords, [-1,1] on each axis.
type Controller struct {
	Settings

	Target   r3.Vec
	Distance float64
	Heading  float64  // degrees
	Pitch    float64  // degrees, within +/- MaxPitch

	orbiting bool
	panning  bool
	lastX    float64
	lastY    float64
}

func New(s Settings) *Controller {
	c := &Controller{Settings: s}
	c.Reset()
	return c
}

func (c Controller)String() string {
	mode := ""
	if c.orbiting { mode = " orbiting" }
	if c.panning  { mode = " panning" }
	return fmt.Sprintf("Camera[target (%.1f,%.1f,%.1f), dist %.1f, h %.1f, p %.1f%s]",
		c.Target.X, c.Target.Y, c.Target.Z, c.Distance, c.Heading, c.Pitch, mode)
}

// Reset returns to the home view.
func (c *Controller)Reset() {
	c.Target = c.InitialTarget
	c.Distance = emath.Clamp(c.InitialDistance, c.MinDistance, c.MaxDistance)
	c.Heading = c.InitialHeading
	c.Pitch = emath.Clamp(c.InitialPitch, -MaxPitch, MaxPitch)
}

func (c *Controller)BeginOrbit(x, y float64) {
	c.orbiting, c.panning = true, false
	c.lastX, c.lastY = x, y
}

func (c *Controller)BeginPan(x, y float64) {
	c.orbiting, c.panning = false, true
	c.lastX, c.lastY = x, y
}

func (c *Controller)EndDrag() {
	c.orbiting, c.panning = false, false
}

func (c *Controller)Dragging() bool { return c.orbiting || c.panning }

// PointerMoved applies the motion since the last pointer position to
// whichever drag is in progress.
func (c *Controller)PointerMoved(x, y float64) {
	dx, dy := x - c.lastX, y - c.lastY
	c.lastX, c.lastY = x, y

	switch {
	case c.orbiting:
		c.Heading += dx * c.RotationSpeed
		c.Pitch = emath.Clamp(c.Pitch - dy * c.RotationSpeed, -MaxPitch, MaxPitch)

	case c.panning:
		_, right, up := c.Basis()
		scale := c.Distance * c.PanSpeed
		offset := r3.Add(r3.Scale(dx, right), r3.Scale(dy, up))
		c.Target = r3.Sub(c.Target, r3.Scale(scale, offset))
	}
}

func (c *Controller)ZoomIn() {
	c.Distance = math.Max(c.MinDistance, c.Distance * c.WheelZoom)
}

func (c *Controller)ZoomOut() {
	c.Distance = math.Min(c.MaxDistance, c.Distance / c.WheelZoom)
}

// Position is where the camera sits this frame; it always looks at Target.
func (c *Controller)Position() r3.Vec {
	return r3.Add(c.Target, emath.Spherical(c.Heading, c.Pitch, c.Distance))
}

func (c *Controller)LookAt() r3.Vec { return c.Target }

// Basis returns the camera's unit forward, right and up vectors, with +Z
// as world up.
func (c *Controller)Basis() (forward, right, up r3.Vec) {
	forward = r3.Unit(r3.Scale(-1, emath.Spherical(c.Heading, c.Pitch, 1)))
	right = r3.Unit(r3.Cross(forward, r3.Vec{Z: 1}))
	up = r3.Cross(right, forward)
	return
}
