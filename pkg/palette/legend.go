package palette

import(
	"fmt"

	"github.com/fogleman/gg"
)

const(
	legendWidth  = 220
	legendRowH   = 22
	legendMargin = 8
	swatchW      = 120
	swatchH      = 18
)

// WriteLegend renders the exposure color key as a PNG, one row per
// exposure time, lowest first.
func WriteLegend(filename string, t Table) error {
	exposures := t.Exposures()
	height := 2*legendMargin + legendRowH*(len(exposures)+1)

	dc := gg.NewContext(legendWidth, height)
	dc.SetRGB(0x2b/255.0, 0x2b/255.0, 0x2b/255.0)
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	dc.DrawString("Exposure (ms)", legendMargin, legendMargin+swatchH-4)

	// each row is a swatch, labelled in whichever ink shows up on it
	for i, e := range exposures {
		tint := t.Colors[e]
		y := float64(legendMargin + legendRowH*(i+1))

		dc.SetRGB(tint.R, tint.G, tint.B)
		dc.DrawRectangle(legendMargin, y, swatchW, swatchH)
		dc.Fill()

		ink := tint.Ink()
		dc.SetRGB(ink.R, ink.G, ink.B)
		dc.DrawString(fmt.Sprintf("%.1f", e), legendMargin+6, y+swatchH-4)
	}

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("legend write '%s': %v", filename, err)
	}
	return nil
}
