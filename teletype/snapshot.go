package teletype

import (
	"image"

	"github.com/fogleman/gg"
)

// cell size of the default gg face (basicfont 7x13) plus spacing
const (
	cellWidth  = 7
	cellHeight = 16
	margin     = 4
)

// Render draws the screen as light grey text on black.
func (t *Teletype) Render() image.Image {
	dc := gg.NewContext(Columns*cellWidth+2*margin, Rows*cellHeight+2*margin)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(0.75, 0.75, 0.75)
	for r, line := range t.Lines() {
		if line == "" {
			continue
		}
		// DrawString positions the baseline
		dc.DrawString(line, margin, float64(margin+(r+1)*cellHeight-4))
	}
	return dc.Image()
}

// Snapshot writes the rendered screen to a PNG file.
func (t *Teletype) Snapshot(path string) error {
	return gg.SavePNG(path, t.Render())
}
