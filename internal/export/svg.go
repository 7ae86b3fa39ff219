package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/dbwsim/internal/viz"
)

const (
	background = "#0a0a0a"
	padding    = 0.1
)

// dot bits per braille cell, row-major over the 2x4 grid
var dotBits = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasSVG renders every lit braille dot of canvas as a circle.
func CanvasSVG(w io.Writer, canvas *viz.Canvas, scale float64, color string) error {
	if canvas == nil {
		return fmt.Errorf("nil canvas")
	}
	if scale <= 0 {
		scale = 1
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4
	r := scale * 0.4

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=%q>\n", color)

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			cell := canvas.Grid[row][col]
			if cell < 0x2800 {
				continue
			}
			pattern := int(cell - 0x2800)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&dotBits[dy][dx] == 0 {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// PathSVG draws the (xs[i], ys[i]) polyline fitted to a width x height
// viewport with y pointing up. Both axes share one scale so a driven path
// keeps its shape.
func PathSVG(w io.Writer, xs, ys []float64, width, height int, stroke string) error {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return fmt.Errorf("path needs at least 2 points, got %d", n)
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	span := max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1 + 2*padding
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := float64(min(width, height)) / span

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=\"", stroke)
	for i := 0; i < n; i++ {
		px := float64(width)/2 + (xs[i]-cx)*scale
		py := float64(height)/2 - (ys[i]-cy)*scale
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", px, py)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}
