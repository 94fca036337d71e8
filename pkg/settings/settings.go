package settings

import(
	"errors"
	"fmt"
	"log"
	"strings"
)

const(
	KeyDefaultLayerSettings = "Default layer settings"
	KeyImageSettings        = "Image settings"
	KeyPositionSettings     = "Position settings"
	KeyLayerThickness       = "Layer thickness (um)"
	KeyPixelSize            = "Pixel size (um)"
	KeyNamedImageSettings   = "Named image settings"
	KeyImageSettingsList    = "Image settings list"
	KeyNumDuplications      = "Number of duplications"
	KeyUsingNamedSettings   = "Using named image settings"

	KeyImageFile            = "Image file"
	KeyExposureTime         = "Layer exposure time (ms)"
	KeyFocusPosition        = "Relative focus position (um)"
	KeyPowerSetting         = "Light engine power setting"

	DefaultLayerThickness   = 10.0 // um
	DefaultPixelSize        = 7.6  // um
)

// ErrMalformed is returned when a document has no layer sections, or is not
// a JSON object at all.
var ErrMalformed = errors.New("malformed print settings")

// An ImageSpec is one image of a layer, after the default, named and direct
// settings have been folded together.
type ImageSpec struct {
	File          string    // relative to the image root, e.g. "main/0042_main.png"
	ExposureTime  *float64  // ms
	FocusPosition *float64  // um
	ImageType     string    // first path segment of File
	PowerSetting  *int
}

func (is ImageSpec)String() string {
	str := fmt.Sprintf("%s[%s", is.File, is.ImageType)
	if is.ExposureTime != nil {
		str += fmt.Sprintf(", %.0fms", *is.ExposureTime)
	}
	return str + "]"
}

// A LayerEntry is one slot in the expanded print sequence. Duplicated
// sections share the same Images slice.
type LayerEntry struct {
	SequenceIndex  int         // 0-based, contiguous over the expanded sequence
	Images         []ImageSpec
	DuplicateIndex *int        // only set when the section was duplicated more than once
}

// A Sequence is the resolved, ordered list of layers for a print.
type Sequence struct {
	Layers            []LayerEntry
	UniqueImages      map[string]bool

	LayerHeight       float64  // um
	PixelSize         float64  // um
	PixelSizeDeclared bool     // false if PixelSize is the fallback
}

func (s Sequence)TotalLayers() int      { return len(s.Layers) }
func (s Sequence)UniqueImageCount() int { return len(s.UniqueImages) }

func (s Sequence)TotalImages() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Images)
	}
	return n
}

func (s Sequence)String() string {
	return fmt.Sprintf("Sequence[%d layers, %d unique images, %.1fum/layer, %.2fum/px]",
		s.TotalLayers(), s.UniqueImageCount(), s.LayerHeight, s.PixelSize)
}

// LoadFile reads a print settings file and resolves its layer sequence.
func LoadFile(filename string) (Sequence, error) {
	doc, err := LoadDocument(filename)
	if err != nil {
		return Sequence{}, err
	}
	return Resolve(doc)
}

type layerSection struct {
	body      map[string]interface{}
	numCopies int
}

// Resolve flattens the document into the ordered layer sequence. Each
// image starts from the default image settings, then the named settings
// group it refers to, then its own fields.
func Resolve(doc Document) (Sequence, error) {
	seq := Sequence{
		Layers:       []LayerEntry{},
		UniqueImages: map[string]bool{},
		LayerHeight:  LayerHeight(doc),
	}
	seq.PixelSize, seq.PixelSizeDeclared = PixelSize(doc)

	defaults := subsection(doc.section(KeyDefaultLayerSettings), KeyImageSettings)
	named := doc.section(KeyNamedImageSettings)

	sections := findLayerSections(doc)
	log.Printf("Found %d sections with layer settings\n", len(sections))
	if len(sections) == 0 {
		return seq, fmt.Errorf("%w: no '%s' in any section", ErrMalformed, KeyImageSettingsList)
	}

	for _, section := range sections {
		images := []ImageSpec{}
		entries, _ := section.body[KeyImageSettingsList].([]interface{})
		for _, e := range entries {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			img := resolveImage(entry, defaults, named)
			if img.File == "" {
				continue
			}
			images = append(images, img)
			seq.UniqueImages[img.File] = true
		}

		if len(images) == 0 {
			continue
		}

		for i:=0; i<section.numCopies; i++ {
			entry := LayerEntry{SequenceIndex: len(seq.Layers), Images: images}
			if section.numCopies > 1 {
				dup := i
				entry.DuplicateIndex = &dup
			}
			seq.Layers = append(seq.Layers, entry)
		}
	}

	log.Printf("Total layers in sequence: %d\n", len(seq.Layers))
	return seq, nil
}

// findLayerSections scans the top level entries, in document order, for
// objects holding an image settings list. Lists are scanned one level deep.
func findLayerSections(doc Document) []layerSection {
	sections := []layerSection{}

	for _, key := range doc.Keys {
		switch v := doc.Values[key].(type) {
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					if s, ok := asLayerSection(m); ok {
						sections = append(sections, s)
					}
				}
			}
		case map[string]interface{}:
			if s, ok := asLayerSection(v); ok {
				sections = append(sections, s)
			}
		}
	}

	return sections
}

func asLayerSection(m map[string]interface{}) (layerSection, bool) {
	if _, exists := m[KeyImageSettingsList]; !exists {
		return layerSection{}, false
	}

	n := 1
	if f, ok := number(m, KeyNumDuplications); ok {
		n = int(f)
		if n <= 0 {
			log.Printf("warning: '%s' of %d treated as 1\n", KeyNumDuplications, n)
			n = 1
		}
	}

	return layerSection{body: m, numCopies: n}, true
}

// Overlay folds an image entry over its named settings group and the
// defaults. Precedence is entry > named > defaults.
func Overlay(entry, defaults, named map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}
	for k, v := range defaults {
		merged[k] = v
	}
	if name, ok := entry[KeyUsingNamedSettings].(string); ok {
		if group, ok := named[name].(map[string]interface{}); ok {
			for k, v := range group {
				merged[k] = v
			}
		}
	}
	for k, v := range entry {
		merged[k] = v
	}
	return merged
}

func resolveImage(entry, defaults, named map[string]interface{}) ImageSpec {
	merged := Overlay(entry, defaults, named)

	file, _ := merged[KeyImageFile].(string)
	img := ImageSpec{
		File:      file,
		ImageType: ImageType(file),
	}
	if f, ok := number(merged, KeyExposureTime); ok {
		img.ExposureTime = &f
	}
	if f, ok := number(merged, KeyFocusPosition); ok {
		img.FocusPosition = &f
	}
	if f, ok := number(merged, KeyPowerSetting); ok {
		p := int(f)
		img.PowerSetting = &p
	}

	return img
}

// ImageType is the first directory segment of an image path, e.g. "main"
// for "main/0001_main.png".
func ImageType(file string) string {
	if file == "" {
		return "unknown"
	}
	parts := strings.Split(strings.ReplaceAll(file, "\\", "/"), "/")
	if parts[0] == "" {
		return "unknown"
	}
	return parts[0]
}

// LayerHeight is the layer thickness from the default position settings.
func LayerHeight(doc Document) float64 {
	pos := subsection(doc.section(KeyDefaultLayerSettings), KeyPositionSettings)
	if f, ok := number(pos, KeyLayerThickness); ok {
		return f
	}
	return DefaultLayerThickness
}

// PixelSize is the projected pixel pitch, if the document declares one.
func PixelSize(doc Document) (float64, bool) {
	pos := subsection(doc.section(KeyDefaultLayerSettings), KeyPositionSettings)
	if f, ok := number(pos, KeyPixelSize); ok && f > 0 {
		return f, true
	}
	return DefaultPixelSize, false
}
