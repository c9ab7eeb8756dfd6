package export

import (
	"io"
	"os"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
)

// RenderPNG draws the full category tree as a PNG image.
func RenderPNG(w io.Writer, f *hierarchy.Forest, title string) error {
	rows := Layout(f, nil)
	width, height := canvasSize(rows)

	dc := gg.NewContext(width, height)
	dc.SetHexColor(colorBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor(colorTitle)
	dc.DrawString(title, margin, margin+14)

	for i, r := range rows {
		y := float64(margin + rowHeight*(i+1))
		x := float64(margin + r.Depth*indentWidth)
		mid := y + rowHeight/2

		dc.SetHexColor(colorGuide)
		dc.SetLineWidth(1)
		if r.Depth > 0 {
			px := x - indentWidth + 5
			dc.DrawLine(px, y, px, mid)
			dc.DrawLine(px, mid, x, mid)
			if !r.Last {
				dc.DrawLine(px, mid, px, y+rowHeight)
			}
		}
		for level := 1; level < len(r.Guides); level++ {
			if r.Guides[level] {
				gx := float64(margin+(level-1)*indentWidth) + 5
				dc.DrawLine(gx, y, gx, y+rowHeight)
			}
		}
		dc.Stroke()

		if r.Expandable {
			dc.SetHexColor(colorTitle)
		}
		dc.DrawCircle(x+5, mid, 4)
		dc.Fill()

		dc.SetHexColor(colorText)
		dc.DrawString(r.Label(), x+14, mid+4)
	}
	if len(rows) == 0 {
		dc.SetHexColor(colorGuide)
		dc.DrawString("No categories", margin, float64(margin+rowHeight+14))
	}
	return dc.EncodePNG(w)
}

// SavePNGToFile writes the PNG rendering to filename.
func SavePNGToFile(f *hierarchy.Forest, title, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := RenderPNG(file, f, title); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
