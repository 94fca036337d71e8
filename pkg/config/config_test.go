package config

import(
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	c := NewConfig()
	if err := c.Finalize(); err != nil {
		t.Fatalf("defaults don't validate: %v", err)
	}
	if c.Workers != 4 || c.Scene.BatchSize != 10 || c.Camera.InitialDistance != 5000 {
		t.Errorf("unexpected defaults:\n%s", c.AsYaml())
	}
	if m := c.RenderMode(); !m.ShowPositive || m.Opacity != 0.5 || m.HighQuality {
		t.Errorf("RenderMode = %s", m)
	}
}

func TestYamlOverlaysDefaults(t *testing.T) {
	c, err := NewConfigFromYaml([]byte(`
verbosity: 2
opacity: 0.3
palette: ["#000000", "#ffffff"]
camera:
  initial_distance: 2000
scene:
  batch_size: 25
`))
	if err != nil {
		t.Fatalf("NewConfigFromYaml: %v", err)
	}
	if c.Verbosity != 2 || c.Opacity != 0.3 || c.Scene.BatchSize != 25 {
		t.Errorf("overrides lost:\n%s", c.AsYaml())
	}
	if c.Camera.InitialDistance != 2000 || c.Camera.MaxDistance != 50000 {
		t.Errorf("camera = %+v", c.Camera)
	}
	if c.Scene.Epsilon != 1e-5 {
		t.Errorf("unset scene params should keep defaults: %+v", c.Scene)
	}
	a, err := c.Assigner()
	if err != nil || len(a.Colors) != 2 {
		t.Errorf("Assigner: %v, %d colors", err, len(a.Colors))
	}
}

func TestAsYamlRoundTrips(t *testing.T) {
	c := NewConfig()
	c.Opacity = 0.7
	c2, err := NewConfigFromYaml([]byte(c.AsYaml()))
	if err != nil {
		t.Fatal(err)
	}
	if c2.Opacity != 0.7 || c2.Camera != c.Camera || c2.Scene != c.Scene {
		t.Errorf("round trip lost values:\n%s", c2.AsYaml())
	}
}

func TestBadConfig(t *testing.T) {
	bad := []string{
		"opacity: 1.5",
		"downsample: 0",
		`palette: ["#nothex"]`,
		"camera: {min_distance: 100, max_distance: 10}",
		"camera: {wheel_zoom: 1.2}",
		"opacity: [1, 2]",
	}
	for _, y := range bad {
		if _, err := NewConfigFromYaml([]byte(y)); err == nil {
			t.Errorf("%q should not validate", y)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "slicestack.yaml")
	if err := os.WriteFile(fn, []byte("workers: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(fn)
	if err != nil || c.Workers != 2 {
		t.Errorf("LoadConfig = %d, %v", c.Workers, err)
	}

	_, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "nope.yaml") {
		t.Errorf("missing file err = %v", err)
	}
}
