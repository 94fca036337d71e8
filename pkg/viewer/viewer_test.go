package viewer

import(
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/abworrall/slicestack/pkg/config"
	"github.com/abworrall/slicestack/pkg/scene"
	"github.com/abworrall/slicestack/pkg/settings"
	"github.com/abworrall/slicestack/pkg/stack"
)

type recorder struct {
	statuses []string
	warnings []error
	progress []int
}

func (r *recorder)Status(text string)           { r.statuses = append(r.statuses, text) }
func (r *recorder)Progress(pct int, text string) { r.progress = append(r.progress, pct) }
func (r *recorder)Warn(err error)                { r.warnings = append(r.warnings, err) }

func (r *recorder)saw(status string) bool {
	for _, s := range r.statuses {
		if s == status {
			return true
		}
	}
	return false
}

func writePNG(t *testing.T, filename string, fill int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for i:=0; i<fill; i++ {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newPrintDir(t *testing.T) string {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "minimized_slices", "main", "0001_main.png"), 10)
	writePNG(t, filepath.Join(root, "minimized_slices", "main", "0002_main.png"), 20)
	settingsJSON := `{
		"Default layer settings": {"Image settings": {"Layer exposure time (ms)": 300}},
		"Layers": [
			{"Number of duplications": 3, "Image settings list": [
				{"Image file": "main/0001_main.png"}, {"Image file": "extra/0001_extra.png"}
			]},
			{"Image settings list": [
				{"Image file": "main/0002_main.png", "Layer exposure time (ms)": 350},
				{"Image file": "extra/0002_extra.png"}
			]}
		]
	}`
	if err := os.WriteFile(filepath.Join(root, "print_settings.json"), []byte(settingsJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func newViewer(t *testing.T) (*Viewer, *scene.MemGraph, *recorder) {
	g := scene.NewMemGraph()
	r := &recorder{}
	v, err := New(config.NewConfig(), g, r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Close)
	return v, g, r
}

func settle(t *testing.T, v *Viewer) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for v.Tick() {
		if time.Now().After(deadline) {
			t.Fatalf("viewer did not settle: %s", v)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoadPrintDirectory(t *testing.T) {
	v, g, r := newViewer(t)
	dir := newPrintDir(t)

	if !v.LoadPrintDirectory(dir) {
		t.Fatalf("load rejected")
	}
	if v.LoadPrintDirectory(dir) {
		t.Errorf("a second load should be rejected while the first is running")
	}
	settle(t, v)

	if n := len(g.Root().Children()); n != 4 {
		t.Errorf("scene has %d layers, want 4", n)
	}
	if len(r.warnings) != 4 {
		t.Errorf("got %d warnings, want 4: %v", len(r.warnings), r.warnings)
	}
	for _, want := range []string{"Parsing JSON", "Finding images", "Loaded 4 layers (2 unique)", "Built 4 layers"} {
		if !r.saw(want) {
			t.Errorf("no status %q in %v", want, r.statuses)
		}
	}
	if got := v.ImageTypes(); !reflect.DeepEqual(got, []string{"main"}) {
		t.Errorf("ImageTypes = %v", got)
	}
	if got := v.Exposures(); !reflect.DeepEqual(got, []float64{300, 350}) {
		t.Errorf("Exposures = %v", got)
	}
	if s := v.Summary(); s.UniqueImages != 2 || s.TotalExposures != 4 {
		t.Errorf("summary:\n%s", s)
	}
}

func TestFailedLoadKeepsScene(t *testing.T) {
	v, g, _ := newViewer(t)
	if !v.LoadPrintDirectory(newPrintDir(t)) {
		t.Fatal("load rejected")
	}
	settle(t, v)
	root := g.Root()

	if v.LoadPrintDirectory(filepath.Join(t.TempDir(), "missing")) {
		t.Errorf("missing dir should be rejected")
	}
	if !errors.Is(v.LastError(), stack.ErrDirectoryNotFound) {
		t.Errorf("LastError = %v", v.LastError())
	}

	bad := t.TempDir()
	os.WriteFile(filepath.Join(bad, "print_settings.json"), []byte(`{"x": 1}`), 0644)
	if !v.LoadPrintDirectory(bad) {
		t.Fatalf("a dir with a settings file should be accepted")
	}
	settle(t, v)

	if !errors.Is(v.LastError(), settings.ErrMalformed) {
		t.Errorf("LastError = %v", v.LastError())
	}
	if g.Root() != root || len(root.Children()) != 4 || len(v.Result().Records) != 4 {
		t.Errorf("failed load replaced the scene")
	}
}

func TestModeSwitches(t *testing.T) {
	v, _, r := newViewer(t)
	v.LoadPrintDirectory(newPrintDir(t))
	settle(t, v)
	r.statuses = nil

	v.TogglePixelMode()
	if v.Filter().ShowPositive {
		t.Errorf("TogglePixelMode did not flip the mode")
	}
	if v.LoadPrintDirectory(newPrintDir(t)) {
		t.Errorf("load should be rejected during a re-render")
	}
	settle(t, v)
	if !r.saw("Re-rendering...") || r.statuses[len(r.statuses)-1] != "Done" {
		t.Errorf("statuses: %v", r.statuses)
	}

	v.SetVoidOnly(true)
	v.SetVoidHighlight(true)
	if f := v.Filter(); f.VoidOnly || !f.VoidHighlight {
		t.Errorf("void modes should be exclusive: %s", f)
	}

	v.SetOpacity(0.501)
	if v.Filter().Opacity != 0.5 {
		t.Errorf("sub-cent opacity change should be ignored")
	}
	v.SetOpacity(3)
	if v.Filter().Opacity != 1 {
		t.Errorf("Opacity = %v, want clamp to 1", v.Filter().Opacity)
	}

	r.statuses = nil
	v.SetQualityMode(true)
	settle(t, v)
	if !v.Filter().HighQuality || !r.saw("High Quality") {
		t.Errorf("SetQualityMode: %s, %v", v.Filter(), r.statuses)
	}
}

func TestToggles(t *testing.T) {
	v, g, _ := newViewer(t)
	v.LoadPrintDirectory(newPrintDir(t))
	settle(t, v)

	v.ToggleExposure(350, false)
	layers := g.Root().Children()
	if !layers[3].Children()[0].IsHidden() || layers[0].Children()[0].IsHidden() {
		t.Errorf("only the 350ms card should be hidden")
	}

	v.ToggleImageType("main", false)
	for _, ln := range layers {
		if !ln.Children()[0].IsHidden() {
			t.Errorf("%s: main card still shown", ln.Name())
		}
	}

	top, bottom := 2, 2
	v.SetLayerRange(&top, &bottom)
	for i, ln := range layers {
		if ln.IsHidden() != (i != 1) {
			t.Errorf("layer %d hidden=%v", i+1, ln.IsHidden())
		}
	}
}

func TestHandleEvent(t *testing.T) {
	v, _, _ := newViewer(t)
	c := v.Camera

	if v.HandleEvent(MotionNotify{X: 0.5, Y: 0.5}) {
		t.Errorf("motion without a drag should be ignored")
	}

	v.HandleEvent(ButtonPress{Button: ButtonLeft, X: 0, Y: 0})
	v.HandleEvent(MotionNotify{X: 0.1, Y: 0})
	v.HandleEvent(ButtonRelease{Button: ButtonLeft})
	if c.Heading < 54.99 || c.Heading > 55.01 {
		t.Errorf("Heading = %v, want 55", c.Heading)
	}

	v.HandleEvent(MouseWheel{DeltaY: 1})
	if c.Distance >= 5000 {
		t.Errorf("wheel up should zoom in, distance %v", c.Distance)
	}

	v.HandleEvent(ButtonPress{Button: ButtonRight, X: 0, Y: 0})
	v.HandleEvent(MotionNotify{X: 0.2, Y: 0.2})
	v.HandleEvent(ButtonRelease{Button: ButtonRight})
	if c.Target.X == 0 && c.Target.Y == 0 && c.Target.Z == 0 {
		t.Errorf("pan did not move the target")
	}

	if !v.HandleEvent(KeyPress{Label: "h"}) {
		t.Errorf("h should be handled")
	}
	if c.Heading != 45 || c.Distance != 5000 || c.Target.X != 0 {
		t.Errorf("h did not reset the view: %s", c)
	}
	if v.HandleEvent(KeyPress{Label: "q"}) {
		t.Errorf("q is not bound")
	}
}
