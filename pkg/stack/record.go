package stack

import(
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abworrall/slicestack/pkg/mask"
)

// A Texture is one decoded image of a layer, plus the metadata the scene
// needs to place and tint it. Duplicated layers share the same Mask.
type Texture struct {
	Mask         *mask.Mask
	File         string    // relative to the image root
	AspectRatio  float64   // width / height
	ExposureTime *float64  // ms
	ImageType    string

	ContentKey   mask.Key  // key for the positive pixel mode
	negativeKey  mask.Key
}

// NewTexture wraps a decoded mask, computing its content keys.
func NewTexture(file string, m *mask.Mask, exposure *float64, imageType string) Texture {
	return Texture{
		Mask:         m,
		File:         file,
		AspectRatio:  m.AspectRatio(),
		ExposureTime: exposure,
		ImageType:    imageType,
		ContentKey:   m.Key(true),
		negativeKey:  m.Key(false),
	}
}

// Key returns the content key for the given pixel mode.
func (t Texture)Key(showPositive bool) mask.Key {
	if showPositive {
		return t.ContentKey
	}
	return t.negativeKey
}

func (t Texture)String() string {
	exp := "-"
	if t.ExposureTime != nil {
		exp = fmt.Sprintf("%.0fms", *t.ExposureTime)
	}
	return fmt.Sprintf("%s[%s, %s, %s]", t.File, t.ImageType, exp, t.Mask)
}

// A Record is one loaded layer, ready for the scene builder.
type Record struct {
	SequenceNumber int       // 1-based position among the loaded records
	SequenceIndex  int       // 0-based position in the resolved settings sequence
	LayerNumber    int
	DuplicateIndex *int
	Textures       []Texture
}

func (r Record)String() string {
	str := fmt.Sprintf("Layer#%04d (num %d", r.SequenceNumber, r.LayerNumber)
	if r.DuplicateIndex != nil {
		str += fmt.Sprintf(", dup %d", *r.DuplicateIndex)
	}
	str += ")\n"
	for _, t := range r.Textures {
		str += "  " + t.String() + "\n"
	}
	return str
}

// ExposureTimes returns the distinct exposure times across all records.
func ExposureTimes(records []Record) []float64 {
	seen := map[float64]bool{}
	ret := []float64{}
	for _, r := range records {
		for _, t := range r.Textures {
			if t.ExposureTime != nil && !seen[*t.ExposureTime] {
				seen[*t.ExposureTime] = true
				ret = append(ret, *t.ExposureTime)
			}
		}
	}
	return ret
}

// ImageTypes returns the distinct image types, in order of first appearance.
func ImageTypes(records []Record) []string {
	seen := map[string]bool{}
	ret := []string{}
	for _, r := range records {
		for _, t := range r.Textures {
			if !seen[t.ImageType] {
				seen[t.ImageType] = true
				ret = append(ret, t.ImageType)
			}
		}
	}
	return ret
}

// LayerNumber takes the part of the file's basename before the first
// underscore, and parses the run of digits it starts with. So
// "0042_main.png" is 42, but "layer_7.png" is 0.
func LayerNumber(file string) int {
	base := filepath.Base(strings.ReplaceAll(file, "\\", "/"))
	chunk := strings.SplitN(base, "_", 2)[0]

	end := 0
	for end < len(chunk) && chunk[end] >= '0' && chunk[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(chunk[:end])
	if err != nil {
		return 0
	}
	return n
}
