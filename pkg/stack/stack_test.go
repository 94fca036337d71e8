package stack

import(
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abworrall/slicestack/pkg/settings"
	"github.com/abworrall/slicestack/pkg/workpool"
)

func writePNG(t *testing.T, filename string, w, h int, set func(x, y int) bool) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			if set(x, y) {
				img.SetGray(x, y, color.Gray{0xff})
			}
		}
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

func writeFile(t *testing.T, filename, contents string) {
	t.Helper()
	if err := os.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

// newPrintDir makes a print directory with two layer sections, the first
// duplicated three times. Each section names one image that exists and one
// that does not.
func newPrintDir(t *testing.T) string {
	root := t.TempDir()
	slices := filepath.Join(root, ImageDir)
	writePNG(t, filepath.Join(slices, "main", "0001_main.png"), 8, 4, func(x, y int) bool { return x < 4 })
	writePNG(t, filepath.Join(slices, "main", "0002_main.png"), 8, 4, func(x, y int) bool { return y < 1 })

	writeFile(t, filepath.Join(root, "print_settings_v2.json"), `{
		"Default layer settings": {
			"Image settings": {"Layer exposure time (ms)": 300},
			"Position settings": {"Layer thickness (um)": 10}
		},
		"Layers": [
			{"Number of duplications": 3, "Image settings list": [
				{"Image file": "main/0001_main.png"},
				{"Image file": "extra/0001_extra.png", "Layer exposure time (ms)": 500}
			]},
			{"Image settings list": [
				{"Image file": "main/0002_main.png", "Layer exposure time (ms)": 350},
				{"Image file": "extra/0002_extra.png"}
			]}
		]
	}`)
	return root
}

func TestLoadDirectoryEndToEnd(t *testing.T) {
	pool := workpool.New(workpool.DefaultWorkers)
	defer pool.Close()
	events := NewEvents(1024)

	res, err := NewLoader(pool, events).LoadDirectory(newPrintDir(t))
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	if len(res.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(res.Records))
	}
	for i, r := range res.Records {
		if r.SequenceNumber != i+1 {
			t.Errorf("record %d has SequenceNumber %d", i, r.SequenceNumber)
		}
		if len(r.Textures) != 1 {
			t.Errorf("record %d has %d textures, want 1", i, len(r.Textures))
		}
	}
	if res.Records[0].Textures[0].Mask != res.Records[2].Textures[0].Mask {
		t.Errorf("duplicated layers should share one decoded mask")
	}
	if d := res.Records[1].DuplicateIndex; d == nil || *d != 1 {
		t.Errorf("record 1 DuplicateIndex = %v", d)
	}
	if res.Records[3].DuplicateIndex != nil || res.Records[3].LayerNumber != 2 {
		t.Errorf("record 3 = %s", res.Records[3])
	}

	sum := res.Summary
	if sum.UniqueImages != 2 {
		t.Errorf("UniqueImages = %d, want 2", sum.UniqueImages)
	}
	if sum.MissingImages != 4 || sum.TotalExposures != 4 || sum.DiscardedLayers != 0 {
		t.Errorf("summary counts wrong:\n%s", sum)
	}
	if sum.WidthMicrons() != 8*7.6 || sum.DepthMicrons() != 40 {
		t.Errorf("dimensions = %v x %v", sum.WidthMicrons(), sum.DepthMicrons())
	}
	if sum.DecodeLatency.TotalCount() != 2 {
		t.Errorf("decode latency recorded %d values", sum.DecodeLatency.TotalCount())
	}

	warnings, statuses := 0, []string{}
	lastProgress := -1
	events.Drain(func(e Event) {
		switch e.Kind {
		case WarningEvent:
			var miss MissingImageWarning
			if !errors.As(e.Err, &miss) {
				t.Errorf("unexpected warning %v", e.Err)
			}
			warnings++
		case StatusEvent:
			statuses = append(statuses, e.Text)
		case ProgressEvent:
			lastProgress = e.Percent
		}
	})
	if warnings != 4 {
		t.Errorf("got %d warnings, want 4", warnings)
	}
	if lastProgress != 100 {
		t.Errorf("last progress = %d", lastProgress)
	}
	if final := statuses[len(statuses)-1]; final != "Processed 4 layers using 2 unique images" {
		t.Errorf("final status %q", final)
	}
}

func TestEmptyLayerDiscarded(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "main", "0001_main.png"), 2, 2, func(x, y int) bool { return true })

	seq := settings.Sequence{
		Layers: []settings.LayerEntry{
			{SequenceIndex: 0, Images: []settings.ImageSpec{{File: "main/0001_main.png", ImageType: "main"}}},
			{SequenceIndex: 1, Images: []settings.ImageSpec{{File: "main/gone.png", ImageType: "main"}}},
		},
		UniqueImages: map[string]bool{"main/0001_main.png": true, "main/gone.png": true},
		LayerHeight:  10,
		PixelSize:    settings.DefaultPixelSize,
	}

	pool := workpool.New(2)
	defer pool.Close()
	events := NewEvents(64)

	res, err := NewLoader(pool, events).Load(root, seq)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Records) != 1 || res.Summary.DiscardedLayers != 1 {
		t.Fatalf("records=%d discarded=%d", len(res.Records), res.Summary.DiscardedLayers)
	}

	sawDiscard := false
	events.Drain(func(e Event) {
		var d EmptyLayerDiscarded
		if e.Kind == WarningEvent && errors.As(e.Err, &d) && d.SequenceIndex == 1 {
			sawDiscard = true
		}
	})
	if !sawDiscard {
		t.Errorf("no EmptyLayerDiscarded warning for layer 1")
	}
}

func TestLoadDirectoryErrors(t *testing.T) {
	pool := workpool.New(1)
	defer pool.Close()
	l := NewLoader(pool, nil)

	if _, err := l.LoadDirectory(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, ErrDirectoryNotFound) {
		t.Errorf("missing dir: err = %v", err)
	}

	root := t.TempDir()
	if _, err := l.LoadDirectory(root); !errors.Is(err, ErrSettingsFileNotFound) {
		t.Errorf("empty dir: err = %v", err)
	}

	writeFile(t, filepath.Join(root, "print_settings.json"), `{"nothing": "here"}`)
	if _, err := l.LoadDirectory(root); !errors.Is(err, settings.ErrMalformed) {
		t.Errorf("no layers: err = %v", err)
	}
}

func TestFindSettingsFilePicksFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "print_settings_b.json"), "{}")
	writeFile(t, filepath.Join(root, "print_settings_a.json"), "{}")
	writeFile(t, filepath.Join(root, "other.json"), "{}")

	fn, err := FindSettingsFile(root)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(fn) != "print_settings_a.json" {
		t.Errorf("got %s", fn)
	}
}

func TestLayerNumber(t *testing.T) {
	tests := []struct {
		file string
		want int
	}{
		{"42_main.png", 42},
		{"main/0042_main.png", 42},
		{"extra\\0007_extra.png", 7},
		{"layer_7.png", 0},
		{"17.png", 17},
		{"", 0},
	}
	for _, test := range tests {
		if got := LayerNumber(test.file); got != test.want {
			t.Errorf("LayerNumber(%q) = %d, want %d", test.file, got, test.want)
		}
	}
}

func TestEventsOverflow(t *testing.T) {
	ev := NewEvents(2)
	ev.Progress(10, "a")
	ev.Progress(20, "b")
	ev.Progress(30, "c")
	ev.Status("kept")

	texts := []string{}
	ev.Drain(func(e Event) { texts = append(texts, e.Text) })

	if got := strings.Join(texts, ","); got != "a,b,kept" {
		t.Errorf("drained %q", got)
	}
	if ev.Dropped() != 1 {
		t.Errorf("Dropped = %d", ev.Dropped())
	}
	if n := ev.Drain(func(Event) {}); n != 0 {
		t.Errorf("second drain got %d", n)
	}
}

func TestEventsKeepOrder(t *testing.T) {
	ev := NewEvents(1)
	ev.Progress(50, "p")
	ev.Status("Loading layer 1/2")

	texts := []string{}
	ev.Drain(func(e Event) {
		texts = append(texts, e.Text)
		if e.Text == "p" {
			ev.Status("Processed 2 layers")
		}
	})
	ev.Drain(func(e Event) { texts = append(texts, e.Text) })

	if got := strings.Join(texts, ","); got != "p,Loading layer 1/2,Processed 2 layers" {
		t.Errorf("delivered %q", got)
	}
}

func TestEventsConcurrentSendersKeepStatusOrder(t *testing.T) {
	ev := NewEvents(4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i:=0; i<500; i++ {
			ev.Progress(i%100, "tick")
			ev.Status(fmt.Sprintf("status %d", i))
		}
	}()

	last := -1
	check := func(e Event) {
		if e.Kind != StatusEvent {
			return
		}
		var n int
		fmt.Sscanf(e.Text, "status %d", &n)
		if n != last+1 {
			t.Errorf("status %d delivered after %d", n, last)
		}
		last = n
	}
	for {
		select {
		case <-done:
			ev.Drain(check)
			if last != 499 {
				t.Errorf("last status %d, want 499", last)
			}
			return
		default:
			ev.Drain(check)
		}
	}
}
