package stack

import(
	"fmt"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/skypies/util/histogram"

	"github.com/abworrall/slicestack/pkg/settings"
)

// A Summary describes a completed load: counts, real-world dimensions of
// the stack, and some stats about the decoded masks.
type Summary struct {
	TotalLayers     int      // layers in the resolved sequence
	LoadedLayers    int      // layers that produced a record
	UniqueImages    int      // distinct image files that decoded
	ReferencedFiles int      // distinct image files named by the settings
	TotalExposures  int      // textures across all records
	MissingImages   int
	DiscardedLayers int

	PixelSize       float64  // um
	PixelSizeSource string
	LayerHeight     float64  // um
	WidthPixels     int
	HeightPixels    int

	DecodeLatency   *hdrhistogram.Histogram // microseconds
	Coverage        histogram.Histogram     // percent of set pixels, per distinct mask
}

func newSummary() Summary {
	return Summary{
		DecodeLatency: hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3),
		Coverage:      histogram.Histogram{NumBuckets:20, ValMin:0, ValMax:100},
	}
}

func (s *Summary)addDecode(d decoded) {
	s.UniqueImages++
	us := d.elapsed.Microseconds()
	if us < 1 { us = 1 }
	if max := s.DecodeLatency.HighestTrackableValue(); us > max { us = max }
	s.DecodeLatency.RecordValue(us)
	s.Coverage.Add(histogram.ScalarVal(int(d.m.Coverage())))
}

func (s *Summary)finish(records []Record, seq settings.Sequence) {
	s.TotalLayers = seq.TotalLayers()
	s.LoadedLayers = len(records)
	s.ReferencedFiles = seq.UniqueImageCount()
	s.LayerHeight = seq.LayerHeight
	s.setPixelSize(seq.PixelSize, "default")
	if seq.PixelSizeDeclared {
		s.PixelSizeSource = "settings"
	}

	for _, r := range records {
		s.TotalExposures += len(r.Textures)
	}
	if len(records) > 0 && len(records[0].Textures) > 0 {
		m := records[0].Textures[0].Mask
		s.WidthPixels, s.HeightPixels = m.W, m.H
	}
}

func (s *Summary)setPixelSize(um float64, source string) {
	s.PixelSize = um
	s.PixelSizeSource = source
}

func (s Summary)WidthMicrons() float64  { return float64(s.WidthPixels) * s.PixelSize }
func (s Summary)HeightMicrons() float64 { return float64(s.HeightPixels) * s.PixelSize }
func (s Summary)DepthMicrons() float64  { return float64(s.LoadedLayers) * s.LayerHeight }

func (s Summary)String() string {
	str := fmt.Sprintf("Loaded %d layers (%d unique images), %d exposures\n",
		s.LoadedLayers, s.UniqueImages, s.TotalExposures)
	str += fmt.Sprintf("  sequence: %d layers, %d files, %d layers discarded, %d images missing\n",
		s.TotalLayers, s.ReferencedFiles, s.DiscardedLayers, s.MissingImages)
	str += fmt.Sprintf("  size: %.0f x %.0f x %.0f um (pixel %.2fum from %s, layer %.1fum)\n",
		s.WidthMicrons(), s.HeightMicrons(), s.DepthMicrons(), s.PixelSize, s.PixelSizeSource, s.LayerHeight)

	if s.DecodeLatency != nil && s.DecodeLatency.TotalCount() > 0 {
		str += fmt.Sprintf("  decode: n=%d, p50=%s, p99=%s, max=%s\n",
			s.DecodeLatency.TotalCount(),
			time.Duration(s.DecodeLatency.ValueAtQuantile(50)) * time.Microsecond,
			time.Duration(s.DecodeLatency.ValueAtQuantile(99)) * time.Microsecond,
			time.Duration(s.DecodeLatency.Max()) * time.Microsecond)
		str += fmt.Sprintf("  coverage%%: %v\n", s.Coverage)
	}
	return str
}
