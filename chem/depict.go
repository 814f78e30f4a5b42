package chem

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Depicter zeichnet ein Molekül als einfache 2D-Skizze: Schweratome auf einem Kreis,
// Bindungen als Linien, Heteroatome beschriftet.
type Depicter struct {
	Size       int
	Background color.Color
	Bond       color.Color
	Label      color.Color
}

// NewDepicter erstellt einen Depicter mit Standardwerten (300x300, weißer Hintergrund).
func NewDepicter() *Depicter {
	return &Depicter{
		Size:       300,
		Background: color.White,
		Bond:       color.Black,
		Label:      color.RGBA{R: 0xb0, G: 0x10, B: 0x10, A: 0xff},
	}
}

// Render schreibt das Molekül als PNG nach w.
func (d *Depicter) Render(m *Molecule, w io.Writer) error {
	if m == nil {
		return fmt.Errorf("render: nil molecule")
	}
	img := image.NewRGBA(image.Rect(0, 0, d.Size, d.Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: d.Background}, image.Point{}, draw.Src)

	points := d.layout(len(m.Atoms))
	for _, b := range m.Bonds {
		p, q := points[b[0]], points[b[1]]
		line(img, p.X, p.Y, q.X, q.Y, d.Bond)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: d.Label},
		Face: basicfont.Face7x13,
	}
	for i, symbol := range m.Atoms {
		if symbol == "C" && len(m.Atoms) > 1 {
			continue
		}
		p := points[i]
		width := drawer.MeasureString(symbol).Round()
		// Hintergrund unter dem Label freiräumen, damit Bindungen nicht durchscheinen.
		box := image.Rect(p.X-width/2-1, p.Y-7, p.X+width/2+2, p.Y+6)
		draw.Draw(img, box, &image.Uniform{C: d.Background}, image.Point{}, draw.Src)
		drawer.Dot = fixed.P(p.X-width/2, p.Y+4)
		drawer.DrawString(symbol)
	}

	return png.Encode(w, img)
}

// RenderFile schreibt das PNG atomar nach path (temporäre Datei + Rename).
func (d *Depicter) RenderFile(m *Molecule, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".depict-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := d.Render(m, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *Depicter) layout(n int) []image.Point {
	points := make([]image.Point, n)
	center := float64(d.Size) / 2
	if n == 1 {
		points[0] = image.Pt(int(center), int(center))
		return points
	}
	radius := center * 0.75
	for i := range points {
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		points[i] = image.Pt(
			int(math.Round(center+radius*math.Cos(angle))),
			int(math.Round(center+radius*math.Sin(angle))),
		)
	}
	return points
}

// line zeichnet eine Linie nach Bresenham.
func line(img draw.Image, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
