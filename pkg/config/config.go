package config

import(
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/slicestack/pkg/camera"
	"github.com/abworrall/slicestack/pkg/palette"
	"github.com/abworrall/slicestack/pkg/raster"
	"github.com/abworrall/slicestack/pkg/scene"
	"github.com/abworrall/slicestack/pkg/workpool"
)

/* Example config file ...

verbosity: 1
workers: 4
opacity: 0.5
highquality: false
palette: ["#ee6352", "#59cd90", "#3fa7d6"]
exposuretolerance: 50
camera:
  initial_distance: 2000
  wheel_zoom: 0.8
scene:
  batch_size: 20

*/

type Config struct {
	Verbosity         int

	Workers           int        // size of the shared worker pool
	EventQueue        int        // capacity of the status/progress queue

	Opacity           float64    // initial layer opacity, [0,1]
	HighQuality       bool
	ShowPositive      bool
	DownSample        float64    // fast mode scale

	Palette           []string   // hex colors, one per exposure group
	ExposureTolerance float64    // ms
	ExposureGroupSize int

	Camera            camera.Settings
	Scene             scene.Params
}

func NewConfig() Config {
	return Config{
		Workers:           workpool.DefaultWorkers,
		EventQueue:        1024,
		Opacity:           0.5,
		ShowPositive:      true,
		DownSample:        raster.DefaultDownSample,
		Palette:           append([]string{}, palette.DefaultHexColors...),
		ExposureTolerance: palette.DefaultTolerance,
		ExposureGroupSize: palette.DefaultGroupSize,
		Camera:            camera.DefaultSettings(),
		Scene:             scene.DefaultParams(),
	}
}

// NewConfigFromYaml overlays the yaml onto the defaults.
func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config: %v", err)
	}
	return c, c.Finalize()
}

func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return NewConfig(), fmt.Errorf("read '%s': %v", filename, err)
	}
	c, err := NewConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config '%s': %v", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Finalize does sanity checks, and fills in anything left at zero.
func (c *Config)Finalize() error {
	def := NewConfig()
	if c.Workers < 1 { c.Workers = def.Workers }
	if c.EventQueue < 1 { c.EventQueue = def.EventQueue }
	if c.Scene.BatchSize < 1 { c.Scene.BatchSize = def.Scene.BatchSize }
	if c.ExposureGroupSize < 1 { c.ExposureGroupSize = def.ExposureGroupSize }

	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("opacity %.2f not in [0,1]", c.Opacity)
	}
	if c.DownSample <= 0 || c.DownSample > 1 {
		return fmt.Errorf("downsample %.2f not in (0,1]", c.DownSample)
	}
	if c.Camera.MinDistance <= 0 || c.Camera.MinDistance > c.Camera.MaxDistance {
		return fmt.Errorf("camera distance range [%.1f,%.1f] is bad", c.Camera.MinDistance, c.Camera.MaxDistance)
	}
	if c.Camera.WheelZoom <= 0 || c.Camera.WheelZoom >= 1 {
		return fmt.Errorf("camera wheel_zoom %.2f not in (0,1)", c.Camera.WheelZoom)
	}
	if _, err := c.Assigner(); err != nil {
		return err
	}
	return nil
}

func (c Config)Assigner() (palette.Assigner, error) {
	a, err := palette.NewAssigner(c.Palette)
	if err != nil {
		return a, err
	}
	a.Tolerance = c.ExposureTolerance
	a.GroupSize = c.ExposureGroupSize
	return a, nil
}

// RenderMode is the initial pixel mode.
func (c Config)RenderMode() raster.Mode {
	return raster.Mode{
		ShowPositive: c.ShowPositive,
		HighQuality:  c.HighQuality,
		Opacity:      c.Opacity,
		DownSample:   c.DownSample,
	}
}
