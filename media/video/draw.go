package video

import (
	"image"

	"golang.org/x/image/draw"
)

// drawLetterboxed scales img to the largest size that fits inside a
// dstW×dstH canvas without cropping, and draws it centered; the bars on
// either side are left as whatever the canvas was already filled with.
func drawLetterboxed(canvas *image.RGBA, img image.Image, dstW, dstH int) {
	b := img.Bounds()
	x, y, w, h := letterboxRect(b.Dx(), b.Dy(), dstW, dstH)
	dst := image.Rect(x, y, x+w, y+h)
	draw.BiLinear.Scale(canvas, dst, img, b, draw.Over, nil)
}

// drawPiP scales img to fit within t while preserving img's own aspect
// ratio, and draws it centered in t. layoutPiPTiles derives t's height from
// this same image's aspect ratio on the same tick, but rounds it up to an
// even number (at least 2), so center-fit absorbs that rounding rather
// than stretching.
func drawPiP(canvas *image.RGBA, img image.Image, t tile) {
	b := img.Bounds()
	rx, ry, rw, rh := letterboxRect(b.Dx(), b.Dy(), t.w, t.h)
	dst := image.Rect(t.x+rx, t.y+ry, t.x+rx+rw, t.y+ry+rh)
	draw.BiLinear.Scale(canvas, dst, img, b, draw.Over, nil)
}
