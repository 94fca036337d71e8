package stack

import(
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/abworrall/slicestack/pkg/mask"
	"github.com/abworrall/slicestack/pkg/settings"
	"github.com/abworrall/slicestack/pkg/workpool"
)

const(
	SettingsGlob = "print_settings*.json"
	ImageDir     = "minimized_slices"
)

// A Loader turns a resolved sequence into layer records. Image decoding is
// fanned out onto Pool; Load itself blocks, so callers on the interactive
// thread should run it as a job and poll.
type Loader struct {
	Pool      *workpool.Pool
	Reporter  Reporter
	Verbosity int
}

func NewLoader(pool *workpool.Pool, r Reporter) *Loader {
	if r == nil {
		r = Discard{}
	}
	return &Loader{Pool: pool, Reporter: r}
}

// Result is everything one load produced.
type Result struct {
	Root     string
	Records  []Record
	Sequence settings.Sequence
	Summary  Summary
}

// FindSettingsFile returns the lexically first print_settings*.json in root.
func FindSettingsFile(root string) (string, error) {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("load '%s': %w", root, ErrDirectoryNotFound)
	}

	matches, err := filepath.Glob(filepath.Join(root, SettingsGlob))
	if err != nil {
		return "", fmt.Errorf("glob '%s': %v", root, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("load '%s': %w", root, ErrSettingsFileNotFound)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// {{{ l.LoadDirectory

// LoadDirectory loads a print directory: one print_settings*.json, plus
// the images under minimized_slices/.
func (l *Loader)LoadDirectory(root string) (Result, error) {
	settingsFile, err := FindSettingsFile(root)
	if err != nil {
		return Result{}, err
	}

	l.Reporter.Status("Parsing JSON")
	seq, err := settings.LoadFile(settingsFile)
	if err != nil {
		return Result{}, fmt.Errorf("load '%s': %w", root, err)
	}
	l.Reporter.Status(fmt.Sprintf("Loading settings: %s", filepath.Base(settingsFile)))

	l.Reporter.Status("Finding images")
	imageRoot := filepath.Join(root, ImageDir)
	if fi, err := os.Stat(imageRoot); err != nil || !fi.IsDir() {
		return Result{}, fmt.Errorf("load '%s': %w", imageRoot, ErrDirectoryNotFound)
	}

	res, err := l.Load(imageRoot, seq)
	res.Root = root
	return res, err
}
// }}}

type decoded struct {
	m        *mask.Mask
	pos, neg mask.Key
	elapsed  time.Duration
}

func decode(path string) (decoded, error) {
	tStart := time.Now()
	m, err := mask.Load(path)
	if err != nil {
		return decoded{}, err
	}
	return decoded{
		m:       m,
		pos:     m.Key(true),
		neg:     m.Key(false),
		elapsed: time.Since(tStart),
	}, nil
}

// {{{ l.Load

// Load decodes every image the sequence refers to, relative to imageRoot.
// Missing or unreadable images are reported and skipped; a layer left with
// no images is reported and dropped. Each distinct path is decoded once.
func (l *Loader)Load(imageRoot string, seq settings.Sequence) (Result, error) {
	res := Result{Sequence: seq}
	nLayers := seq.TotalLayers()
	nImages := seq.TotalImages()

	l.Reporter.Status("Loading layers")
	l.Reporter.Status(fmt.Sprintf("Processing %d layers", nLayers))
	l.Reporter.Progress(0, fmt.Sprintf("0/%d layers loaded", nLayers))

	// Kick off all the decodes up front, in sequence order
	futures := map[string]*workpool.Future[decoded]{}
	missing := map[string]bool{}
	for _, layer := range seq.Layers {
		for _, img := range layer.Images {
			if futures[img.File] != nil || missing[img.File] {
				continue
			}
			path := filepath.Join(imageRoot, filepath.FromSlash(img.File))
			if _, err := os.Stat(path); err != nil {
				missing[img.File] = true
				continue
			}
			futures[img.File] = workpool.Submit(l.Pool, func() (decoded, error) { return decode(path) })
		}
	}

	sum := newSummary()
	imagesLoaded := 0
	counted := map[string]bool{}

	for i, layer := range seq.Layers {
		idx := i+1
		l.Reporter.Status(fmt.Sprintf("Loading layer %d/%d", idx, nLayers))

		rec := Record{
			SequenceIndex:  layer.SequenceIndex,
			DuplicateIndex: layer.DuplicateIndex,
		}
		if len(layer.Images) > 0 {
			rec.LayerNumber = LayerNumber(layer.Images[0].File)
		}

		for _, img := range layer.Images {
			path := filepath.Join(imageRoot, filepath.FromSlash(img.File))
			if missing[img.File] {
				sum.MissingImages++
				l.Reporter.Warn(MissingImageWarning{Path: path})
				continue
			}

			d, err := futures[img.File].Result()
			if err != nil {
				sum.MissingImages++
				l.Reporter.Warn(UnreadableImageWarning{Path: path, Err: err})
				continue
			}

			if !counted[img.File] {
				counted[img.File] = true
				sum.addDecode(d)
			}

			rec.Textures = append(rec.Textures, Texture{
				Mask:         d.m,
				File:         img.File,
				AspectRatio:  d.m.AspectRatio(),
				ExposureTime: img.ExposureTime,
				ImageType:    img.ImageType,
				ContentKey:   d.pos,
				negativeKey:  d.neg,
			})

			imagesLoaded++
			if nImages > 0 {
				l.Reporter.Progress(imagesLoaded * 100 / nImages, fmt.Sprintf("Loaded image %d/%d", imagesLoaded, nImages))
			}
		}

		if len(rec.Textures) == 0 {
			sum.DiscardedLayers++
			l.Reporter.Warn(EmptyLayerDiscarded{SequenceIndex: layer.SequenceIndex})
		} else {
			rec.SequenceNumber = len(res.Records) + 1
			res.Records = append(res.Records, rec)
		}

		l.Reporter.Progress(idx * 100 / nLayers, fmt.Sprintf("%d/%d layers loaded", idx, nLayers))
		if l.Verbosity > 1 {
			log.Printf("%s", rec)
		}
	}

	sum.finish(res.Records, seq)
	if !seq.PixelSizeDeclared {
		if pitch, file, ok := probePixelPitch(imageRoot, res.Records); ok {
			sum.setPixelSize(pitch, "exif:"+file)
		}
	}
	res.Summary = sum

	l.Reporter.Status(fmt.Sprintf("Processed %d layers using %d unique images", len(res.Records), sum.UniqueImages))
	if l.Verbosity > 0 {
		log.Printf("%s", sum)
	}

	return res, nil
}
// }}}

// {{{ probePixelPitch

// probePixelPitch looks at the first texture's file for resolution
// metadata.
func probePixelPitch(imageRoot string, records []Record) (float64, string, bool) {
	if len(records) == 0 || len(records[0].Textures) == 0 {
		return 0, "", false
	}
	file := records[0].Textures[0].File
	pitch, ok := mask.ProbePixelPitch(filepath.Join(imageRoot, filepath.FromSlash(file)))
	return pitch, file, ok
}
// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
