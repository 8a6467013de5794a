package video

import "github.com/coursecast/coursecast/config"

// tile describes where a PiP source is drawn on the canvas.
type tile struct {
	x, y, w, h int
}

// letterboxRect computes the aspect-preserving destination rectangle for a
// srcW×srcH image scaled into a dstW×dstH canvas: scale to the largest size
// that fits both dimensions, then center it.
func letterboxRect(srcW, srcH, dstW, dstH int) (x, y, w, h int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, dstW, dstH
	}
	scale := float64(dstW) / float64(srcW)
	if alt := float64(dstH) / float64(srcH); alt < scale {
		scale = alt
	}
	w = int(float64(srcW) * scale)
	h = int(float64(srcH) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x = (dstW - w) / 2
	y = (dstH - h) / 2
	return
}

// layoutPiPTiles computes bottom-right-upward stacked tile rectangles for
// aspectRatios (width/height of each secondary source, in attach order,
// earliest first). Each tile is cfg.PipWidthRatio of the canvas width, with
// height chosen to preserve that source's own aspect ratio. The stack fills
// from the most-recently-attached source outward: once a tile would push
// past the top of the canvas, that source and every source attached before
// it are dropped, so overflow always drops the lowest-attach-order tiles
// first. The returned slice covers the surviving suffix of aspectRatios in
// their original order; a caller zipping tiles back to sources must skip
// len(aspectRatios)-len(tiles) entries from the front.
func layoutPiPTiles(cfg config.VideoConfig, canvasW, canvasH int, aspectRatios []float64) []tile {
	if len(aspectRatios) == 0 {
		return nil
	}
	tileW := int(float64(canvasW) * cfg.PipWidthRatio)
	if tileW%2 != 0 {
		tileW++ // even width for yuv420p chroma subsampling
	}
	if tileW < 2 {
		tileW = 2
	}
	pad := cfg.PipPadding

	tiles := make([]tile, 0, len(aspectRatios))
	y := canvasH - pad
	for i := len(aspectRatios) - 1; i >= 0; i-- {
		ar := aspectRatios[i]
		if ar <= 0 {
			ar = 16.0 / 9.0
		}
		tileH := int(float64(tileW) / ar)
		if tileH%2 != 0 {
			tileH++
		}
		if tileH < 2 {
			tileH = 2
		}
		top := y - tileH
		if top < pad {
			break // would exceed canvas height: drop this and every earlier-attached source
		}
		tiles = append(tiles, tile{
			x: canvasW - tileW - pad,
			y: top,
			w: tileW,
			h: tileH,
		})
		y = top - pad
	}
	// tiles was built most-recent-first; reverse it back to attach order so
	// it lines up with the surviving suffix of aspectRatios.
	for l, r := 0, len(tiles)-1; l < r; l, r = l+1, r-1 {
		tiles[l], tiles[r] = tiles[r], tiles[l]
	}
	return tiles
}
