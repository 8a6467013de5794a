package video

import (
	"image"
)

// toYUV420P converts an RGBA canvas to planar YUV 4:2:0 using the BT.601
// coefficients, the format the media encoder expects on its raw video pipe.
// Canvas dimensions are expected to be even; nothing validates this, and
// with an odd width or height the last column or row is left out of the
// chroma planes.
func toYUV420P(canvas *image.RGBA) (y, cb, cr []byte, yStride, cStride int) {
	w := canvas.Rect.Dx()
	h := canvas.Rect.Dy()

	yStride = w
	cStride = w / 2
	y = make([]byte, yStride*h)
	cb = make([]byte, cStride*(h/2))
	cr = make([]byte, cStride*(h/2))

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			r, g, b := pixelRGB(canvas, col, row)
			y[row*yStride+col] = rgbToY(r, g, b)
		}
	}

	// chroma is subsampled 2x2: average the four luma-position samples that
	// share a chroma site before applying the Cb/Cr coefficients.
	for cRow := 0; cRow < h/2; cRow++ {
		for cCol := 0; cCol < w/2; cCol++ {
			r, g, b := avgBlockRGB(canvas, cCol*2, cRow*2)
			cb[cRow*cStride+cCol] = rgbToCb(r, g, b)
			cr[cRow*cStride+cCol] = rgbToCr(r, g, b)
		}
	}
	return
}

func pixelRGB(canvas *image.RGBA, x, y int) (r, g, b float64) {
	c := canvas.RGBAAt(x, y)
	return float64(c.R), float64(c.G), float64(c.B)
}

func avgBlockRGB(canvas *image.RGBA, x, y int) (r, g, b float64) {
	var sr, sg, sb int
	for _, off := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		c := canvas.RGBAAt(x+off[0], y+off[1])
		sr += int(c.R)
		sg += int(c.G)
		sb += int(c.B)
	}
	return float64(sr) / 4, float64(sg) / 4, float64(sb) / 4
}

// BT.601 full-range RGB->YUV coefficients.
func rgbToY(r, g, b float64) byte {
	v := 0.299*r + 0.587*g + 0.114*b
	return clampByte(v)
}

func rgbToCb(r, g, b float64) byte {
	v := -0.168736*r - 0.331264*g + 0.5*b + 128
	return clampByte(v)
}

func rgbToCr(r, g, b float64) byte {
	v := 0.5*r - 0.418688*g - 0.081312*b + 128
	return clampByte(v)
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
