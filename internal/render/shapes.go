package render

import (
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
)

// fillPath paints the closed path built by add onto img with clr.
func fillPath(img *image.RGBA, clr color.Color, add func(p rasterx.Adder)) {
	b := img.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	filler.SetColor(clr)
	add(filler)
	filler.Draw()
}

func drawSquareOverlay(img *image.RGBA, rect image.Rectangle, clr color.Color) {
	fillPath(img, clr, func(p rasterx.Adder) {
		rasterx.AddRect(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Max.X), float64(rect.Max.Y), 0, p)
	})
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	fillPath(img, clr, func(p rasterx.Adder) {
		rasterx.AddCircle(float64(center.X), float64(center.Y), float64(radius), p)
	})
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	r := float64(min(radius, rect.Dx()/2, rect.Dy()/2))
	fillPath(img, clr, func(p rasterx.Adder) {
		if r <= 0 {
			rasterx.AddRect(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Max.X), float64(rect.Max.Y), 0, p)
			return
		}
		rasterx.AddRoundRect(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Max.X), float64(rect.Max.Y), r, r, 0, rasterx.RoundGap, p)
	})
}

// drawArrow draws a shaft and head from the centre of one square to the other.
func drawArrow(img *image.RGBA, fromRect, toRect image.Rectangle, clr color.Color) {
	size := float64(fromRect.Dx())
	sx, sy := float64(fromRect.Min.X)+size/2, float64(fromRect.Min.Y)+size/2
	ex, ey := float64(toRect.Min.X)+size/2, float64(toRect.Min.Y)+size/2

	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	shaft := length - size*0.45
	if shaft < size*0.35 {
		shaft = length * 0.6
	}
	half := size * 0.12
	head := size * 0.25
	bx, by := sx+ux*shaft, sy+uy*shaft

	outline := [][2]float64{
		{sx + nx*half, sy + ny*half},
		{bx + nx*half, by + ny*half},
		{bx + nx*head, by + ny*head},
		{ex, ey},
		{bx - nx*head, by - ny*head},
		{bx - nx*half, by - ny*half},
		{sx - nx*half, sy - ny*half},
	}
	fillPath(img, clr, func(p rasterx.Adder) {
		p.Start(rasterx.ToFixedP(outline[0][0], outline[0][1]))
		for _, pt := range outline[1:] {
			p.Line(rasterx.ToFixedP(pt[0], pt[1]))
		}
		p.Stop(true)
	})
}
