package viewer

import(
	"fmt"
	"log"
	"sort"

	"github.com/abworrall/slicestack/pkg/camera"
	"github.com/abworrall/slicestack/pkg/config"
	"github.com/abworrall/slicestack/pkg/emath"
	"github.com/abworrall/slicestack/pkg/raster"
	"github.com/abworrall/slicestack/pkg/scene"
	"github.com/abworrall/slicestack/pkg/stack"
	"github.com/abworrall/slicestack/pkg/texcache"
	"github.com/abworrall/slicestack/pkg/workpool"
)

// Viewer ties the loader, the scene builder and the camera together. All
// methods are for the interactive thread; none of them block on I/O.
// Status and progress from the background work are queued, and handed to
// the UI's reporter from Tick.
type Viewer struct {
	Config  config.Config
	Camera  *camera.Controller
	Builder *scene.Builder

	ui      stack.Reporter
	events  *stack.Events
	pool    *workpool.Pool
	cache   *texcache.Cache
	loader  *stack.Loader

	filter  scene.RenderFilterState
	loading bool
	load    *workpool.Future[stack.Result]
	current stack.Result
	lastErr error
}

func New(cfg config.Config, g scene.Graph, ui stack.Reporter) (*Viewer, error) {
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("config: %v", err)
	}
	colors, err := cfg.Assigner()
	if err != nil {
		return nil, err
	}
	if ui == nil {
		ui = stack.Discard{}
	}

	v := &Viewer{
		Config: cfg,
		Camera: camera.New(cfg.Camera),
		ui:     ui,
		events: stack.NewEvents(cfg.EventQueue),
		pool:   workpool.New(cfg.Workers),
		cache:  texcache.New(),
		filter: scene.DefaultFilter().WithMode(cfg.RenderMode()),
	}
	v.loader = stack.NewLoader(v.pool, v.events)
	v.loader.Verbosity = cfg.Verbosity
	v.Builder = scene.NewBuilder(g, v.pool, v.cache, colors, v.events, cfg.Scene)
	v.Builder.Verbosity = cfg.Verbosity

	return v, nil
}

// Close waits for outstanding background jobs.
func (v *Viewer)Close() { v.pool.Close() }

func (v *Viewer)String() string {
	return fmt.Sprintf("Viewer[%s, %s, loading=%v]", v.Builder, v.Camera, v.loading)
}

func (v *Viewer)Busy() bool                      { return v.loading || v.Builder.Busy() }
func (v *Viewer)Filter() scene.RenderFilterState { return v.filter }
func (v *Viewer)Result() stack.Result            { return v.current }
func (v *Viewer)Summary() stack.Summary          { return v.current.Summary }
func (v *Viewer)LastError() error                { return v.lastErr }

// ImageTypes are the types present in the loaded stack, sorted.
func (v *Viewer)ImageTypes() []string {
	types := stack.ImageTypes(v.current.Records)
	sort.Strings(types)
	return types
}

// Exposures are the exposure times present in the loaded stack, sorted.
func (v *Viewer)Exposures() []float64 {
	exps := stack.ExposureTimes(v.current.Records)
	sort.Float64s(exps)
	return exps
}

// LoadPrintDirectory starts loading a print directory in the background.
// It returns false, and changes nothing, if a load or re-render is already
// running or the directory has no settings file. Anything that goes wrong
// after that is reported through the status text and LastError, and also
// leaves the current scene alone.
func (v *Viewer)LoadPrintDirectory(path string) bool {
	if v.Busy() {
		return false
	}
	if _, err := stack.FindSettingsFile(path); err != nil {
		v.fail(err)
		return false
	}

	v.loading = true
	v.lastErr = nil
	v.load = workpool.Go(func() (stack.Result, error) {
		return v.loader.LoadDirectory(path)
	})
	return true
}

func (v *Viewer)fail(err error) {
	v.lastErr = err
	log.Printf("Error loading print directory: %v\n", err)
	v.ui.Status(fmt.Sprintf("Error loading print directory: %v", err))
}

// Tick does one frame's worth of work: deliver queued status, pick up a
// finished load, and let the builder apply a finished batch. Returns true
// while anything is still in flight.
func (v *Viewer)Tick() bool {
	if v.load != nil && v.load.Done() {
		res, err := v.load.Result()
		v.load = nil
		v.loading = false
		if err != nil {
			v.fail(err)
		} else {
			v.startScene(res)
		}
	}

	v.Builder.Tick()
	v.drain()
	return v.Busy()
}

func (v *Viewer)drain() {
	v.events.Drain(func(e stack.Event) {
		switch e.Kind {
		case stack.StatusEvent:   v.ui.Status(e.Text)
		case stack.ProgressEvent: v.ui.Progress(e.Percent, e.Text)
		case stack.WarningEvent:  v.ui.Warn(e.Err)
		}
	})
}

func (v *Viewer)startScene(res stack.Result) {
	v.current = res
	v.filter = scene.DefaultFilter().WithMode(v.filter.Mode)
	v.Camera.Reset()

	v.events.Status(fmt.Sprintf("Loaded %d layers (%d unique)", len(res.Records), res.Summary.UniqueImages))
	v.Builder.Start(res.Records, v.filter)
}

// SetLayerRange shows layers with sequence numbers in [bottom, top]; nil
// leaves that end open.
func (v *Viewer)SetLayerRange(top, bottom *int) {
	v.Builder.SetLayerRange(top, bottom)
}

func (v *Viewer)ToggleImageType(imageType string, enabled bool) {
	v.filter = v.filter.WithType(imageType, enabled)
	v.Builder.ApplyVisibility(v.filter)
}

func (v *Viewer)ToggleExposure(exposure float64, enabled bool) {
	v.filter = v.filter.WithExposure(exposure, enabled)
	v.Builder.ApplyVisibility(v.filter)
}

func (v *Viewer)SetQualityMode(highQuality bool) {
	m := v.filter.Mode
	m.HighQuality = highQuality
	if highQuality {
		v.events.Status("High Quality")
	} else {
		v.events.Status("Fast Render")
	}
	v.restyle(m)
}

func (v *Viewer)SetVoidOnly(on bool)      { v.restyle(v.filter.Mode.WithVoidOnly(on)) }
func (v *Viewer)SetVoidHighlight(on bool) { v.restyle(v.filter.Mode.WithVoidHighlight(on)) }

func (v *Viewer)TogglePixelMode() {
	m := v.filter.Mode
	m.ShowPositive = !m.ShowPositive
	v.restyle(m)
}

// SetOpacity commits a new layer opacity. Changes below the cache key's
// precision are ignored.
func (v *Viewer)SetOpacity(opacity float64) {
	opacity = emath.Clamp(opacity, 0, 1)
	if emath.Cents(opacity) == emath.Cents(v.filter.Opacity) {
		return
	}
	m := v.filter.Mode
	m.Opacity = opacity
	v.restyle(m)
}

func (v *Viewer)restyle(m raster.Mode) {
	if m == v.filter.Mode {
		return
	}
	v.filter = v.filter.WithMode(m)
	if v.Builder.NumLayers() == 0 && !v.Builder.Busy() {
		// nothing on screen yet; the next load picks the mode up
		v.cache.Clear()
		return
	}
	v.Builder.Restyle(v.filter)
}
