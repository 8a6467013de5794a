// Package video implements the video compositor: it merges zero or more
// inbound video sources into a single fixed-size YUV420P frame per video
// tick, applying aspect-preserving letterbox/pillarbox for the main source
// and picture-in-picture tiles for the rest.
package video

import (
	"image"
	"sort"
	"sync"
	"time"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/media/clock"
	"github.com/rs/zerolog/log"
)

// Frame is the immutable output of one video tick: a fixed-size YUV420P
// image, produced once per tick even when every source is starved.
type Frame struct {
	Tick      int64
	Timestamp time.Time
	Width     int
	Height    int
	Y, Cb, Cr []byte
	YStride   int
	CStride   int
}

// Compositor owns the source set and the rendering pipeline.
type Compositor struct {
	mu        sync.Mutex
	sources   map[string]*Source
	nextOrder int64

	cfg   config.VideoConfig
	clk   *clock.Clock
	shortID string
}

// New creates a Compositor for one recording session.
func New(cfg config.VideoConfig, shortID string) *Compositor {
	return &Compositor{
		sources: make(map[string]*Source),
		cfg:     cfg,
		clk:     clock.NewVideoClock(cfg.TickRate),
		shortID: shortID,
	}
}

// Attach registers a new inbound video track and returns its Source, onto
// which decoded frames are pushed. Attach/Detach may happen at any time
// while the session is recording.
func (c *Compositor) Attach(id string) *Source {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextOrder++
	src := newSource(id, c.nextOrder)
	c.sources[id] = src
	log.Info().Str("context", "compositor").Str("room", c.shortID).Str("track", id).Msg("video_source_attached")
	return src
}

// Detach removes a video source; the layout re-flows on the next tick.
func (c *Compositor) Detach(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, id)
	log.Info().Str("context", "compositor").Str("room", c.shortID).Str("track", id).Msg("video_source_detached")
}

// orderedLiveSources returns attached sources ordered earliest-attached
// first, ties broken by ID. This ordering is stable across ticks since
// attachOrder never changes once assigned.
func (c *Compositor) orderedLiveSources() []*Source {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := make([]*Source, 0, len(c.sources))
	for _, s := range c.sources {
		live = append(live, s)
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].attachOrder != live[j].attachOrder {
			return live[i].attachOrder < live[j].attachOrder
		}
		return live[i].id < live[j].id
	})
	return live
}

// NextFrame blocks until the next video tick and renders one Frame.
func (c *Compositor) NextFrame(tick int64) (Frame, bool) {
	idx, ok := c.clk.Next(tick)
	if !ok {
		return Frame{}, false
	}
	return c.render(idx), true
}

// Run drives the pull loop, calling emit once per tick until emit returns
// false or Stop is called.
func (c *Compositor) Run(emit func(Frame) bool) {
	c.clk.Run(func(tick int64) bool {
		return emit(c.render(tick))
	})
}

// Stop releases the compositor's clock; it no longer accepts new ticks.
func (c *Compositor) Stop() {
	c.clk.Stop()
}

func (c *Compositor) render(tick int64) Frame {
	w, h := c.cfg.CanvasWidth, c.cfg.CanvasHeight
	staleAfter := time.Duration(c.cfg.StaleAfterMs) * time.Millisecond

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	fillBlack(canvas)

	type live struct {
		img image.Image
	}
	var usable []live
	for _, s := range c.orderedLiveSources() {
		if img, ok := s.snapshot(staleAfter); ok {
			usable = append(usable, live{img: img})
		}
	}

	if len(usable) > 0 {
		drawLetterboxed(canvas, usable[0].img, w, h)

		pips := usable[1:]
		aspects := make([]float64, len(pips))
		for i, p := range pips {
			b := p.img.Bounds()
			if b.Dy() > 0 {
				aspects[i] = float64(b.Dx()) / float64(b.Dy())
			}
		}
		tiles := layoutPiPTiles(c.cfg, w, h, aspects)
		dropped := len(pips) - len(tiles)
		survivors := pips[dropped:]
		for i, tile := range tiles {
			drawPiP(canvas, survivors[i].img, tile)
		}
		if dropped > 0 {
			log.Warn().Str("context", "compositor").Str("room", c.shortID).
				Int("dropped", dropped).Msg("pip_tiles_dropped_overflow")
		}
	}

	y, cb, cr, yStride, cStride := toYUV420P(canvas)
	return Frame{
		Tick:      tick,
		Timestamp: time.Now(),
		Width:     w,
		Height:    h,
		Y:         y,
		Cb:        cb,
		Cr:        cr,
		YStride:   yStride,
		CStride:   cStride,
	}
}

func fillBlack(canvas *image.RGBA) {
	for i := range canvas.Pix {
		if i%4 == 3 {
			canvas.Pix[i] = 255 // alpha
		} else {
			canvas.Pix[i] = 0
		}
	}
}
