package mask

import(
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ProbePixelPitch reads the XResolution/ResolutionUnit tags that some
// slicers write into TIFF masks, and returns the pixel pitch in um.
// Returns false for any file without usable resolution metadata (which
// includes every PNG).
func ProbePixelPitch(filename string) (float64, bool) {
	reader, err := os.Open(filename)
	if err != nil {
		return 0, false
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return 0, false
	}

	tag, err := ex.Get(exif.XResolution)
	if err != nil {
		return 0, false
	}
	num, denom, err := tag.Rat2(0)
	if err != nil || num <= 0 || denom <= 0 {
		return 0, false
	}
	pixelsPerUnit := float64(num) / float64(denom)

	// TIFF default unit is the inch
	umPerUnit := 25400.0
	if tag, err := ex.Get(exif.ResolutionUnit); err == nil {
		if unit, err := tag.Int(0); err == nil {
			switch unit {
			case 2: umPerUnit = 25400.0
			case 3: umPerUnit = 10000.0
			default:
				return 0, false
			}
		}
	}

	return umPerUnit / pixelsPerUnit, true
}
