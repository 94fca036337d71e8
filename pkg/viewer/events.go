package viewer

// Input events, as delivered by the windowing toolkit. Pointer coords are
// normalized to [-1,1] across the window.
type Event interface{}

const(
	ButtonLeft  = 1
	ButtonRight = 3
)

type KeyPress struct {
	Label string
}

type ButtonPress struct {
	Button uint32
	X, Y   float64
}

type ButtonRelease struct {
	Button uint32
	X, Y   float64
}

type MotionNotify struct {
	X, Y float64
}

type MouseWheel struct {
	DeltaY float64 // > 0 zooms in
}

// HandleEvent routes input to the camera. Returns false for events it
// does not use.
func (v *Viewer)HandleEvent(ev Event) bool {
	switch e := ev.(type) {
	case KeyPress:
		if e.Label == "h" {
			v.Camera.Reset()
			return true
		}

	case ButtonPress:
		switch e.Button {
		case ButtonLeft:  v.Camera.BeginOrbit(e.X, e.Y); return true
		case ButtonRight: v.Camera.BeginPan(e.X, e.Y); return true
		}

	case ButtonRelease:
		if e.Button == ButtonLeft || e.Button == ButtonRight {
			v.Camera.EndDrag()
			return true
		}

	case MotionNotify:
		if v.Camera.Dragging() {
			v.Camera.PointerMoved(e.X, e.Y)
			return true
		}

	case MouseWheel:
		switch {
		case e.DeltaY > 0: v.Camera.ZoomIn(); return true
		case e.DeltaY < 0: v.Camera.ZoomOut(); return true
		}
	}
	return false
}
