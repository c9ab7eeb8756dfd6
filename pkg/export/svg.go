package export

import (
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
)

// Drawing metrics shared by the SVG and PNG renderers.
const (
	rowHeight   = 22
	indentWidth = 24
	margin      = 16
	charWidth   = 7
)

// Dracula-ish palette matching the TUI theme
const (
	colorBackground = "#282A36"
	colorText       = "#F8F8F2"
	colorGuide      = "#6272A4"
	colorBadge      = "#8BE9FD"
	colorTitle      = "#BD93F9"
)

func canvasSize(rows []Row) (int, int) {
	width := 320
	for _, r := range rows {
		w := margin*2 + r.Depth*indentWidth + 14 + len([]rune(r.Label()))*charWidth
		if w > width {
			width = w
		}
	}
	height := margin*2 + rowHeight*(len(rows)+1)
	return width, height
}

// RenderSVG writes the full category tree as an SVG document.
func RenderSVG(w io.Writer, f *hierarchy.Forest, title string) error {
	rows := Layout(f, nil)
	width, height := canvasSize(rows)

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+colorBackground)
	canvas.Text(margin, margin+14, title, fmt.Sprintf("fill:%s;font-family:monospace;font-size:15px;font-weight:bold", colorTitle))

	guide := fmt.Sprintf("stroke:%s;stroke-width:1", colorGuide)
	for i, r := range rows {
		y := margin + rowHeight*(i+1)
		x := margin + r.Depth*indentWidth
		mid := y + rowHeight/2

		if r.Depth > 0 {
			// elbow from the parent column to this row
			px := x - indentWidth + 5
			canvas.Line(px, y, px, mid, guide)
			canvas.Line(px, mid, x, mid, guide)
		}
		// continuing guides for ancestors with more siblings below
		for level := 1; level < len(r.Guides); level++ {
			if r.Guides[level] {
				gx := margin + (level-1)*indentWidth + 5
				canvas.Line(gx, y, gx, y+rowHeight, guide)
			}
		}
		if r.Depth > 0 && !r.Last {
			px := x - indentWidth + 5
			canvas.Line(px, mid, px, y+rowHeight, guide)
		}

		marker := "fill:" + colorGuide
		if r.Expandable {
			marker = "fill:" + colorTitle
		}
		canvas.Circle(x+5, mid, 4, marker)
		canvas.Text(x+14, mid+4, r.Label(), fmt.Sprintf("fill:%s;font-family:monospace;font-size:12px", colorText))
	}
	if len(rows) == 0 {
		canvas.Text(margin, margin+rowHeight+14, "No categories", "fill:"+colorGuide+";font-family:monospace;font-size:12px")
	}
	canvas.End()
	return nil
}

// SaveSVGToFile writes the SVG rendering to filename.
func SaveSVGToFile(f *hierarchy.Forest, title, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := RenderSVG(file, f, title); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
