// Package diagnostics renders a per-session throughput chart: the raw
// video and audio bytes written to the encoder per tick over the session's
// lifetime, saved
// alongside the recording once the encoder flushes. It's an optional,
// best-effort artifact — a plotting failure never fails the session.
package diagnostics

import (
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ThroughputPlot accumulates one point per tick for video and audio bytes
// written to the encoder, and renders them against elapsed session time.
type ThroughputPlot struct {
	shortID   string
	startedAt time.Time
	videoLine plotter.XYs
	audioLine plotter.XYs
}

// NewThroughputPlot starts the clock a ThroughputPlot measures elapsed
// time against; construct it when the session enters Recording.
func NewThroughputPlot(shortID string) *ThroughputPlot {
	return &ThroughputPlot{shortID: shortID, startedAt: time.Now()}
}

func (p *ThroughputPlot) elapsed() float64 {
	return time.Since(p.startedAt).Seconds()
}

// AddVideoBytes records the size in bytes of one raw video frame written to
// the encoder.
func (p *ThroughputPlot) AddVideoBytes(n int) {
	p.videoLine = append(p.videoLine, plotter.XY{X: p.elapsed(), Y: float64(n)})
}

// AddAudioBytes records the size in bytes of one raw audio frame written to
// the encoder.
func (p *ThroughputPlot) AddAudioBytes(n int) {
	p.audioLine = append(p.audioLine, plotter.XY{X: p.elapsed(), Y: float64(n)})
}

// Save renders the accumulated points to a PNG at dir/<shortID>-throughput.png.
// It is a no-op (returns nil) if neither line has any points, since that
// means the session never reached Recording.
func (p *ThroughputPlot) Save(dir string) error {
	if len(p.videoLine) == 0 && len(p.audioLine) == 0 {
		return nil
	}

	chart := plot.New()
	chart.Title.Text = "encoder throughput for " + p.shortID
	chart.X.Label.Text = "seconds"
	chart.Y.Label.Text = "bytes/tick"

	addLine := func(label string, xys plotter.XYs, col color.Color) error {
		if len(xys) == 0 {
			return nil
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.Color = col
		points.Color = col
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(1.5)
		chart.Add(line, points)
		chart.Legend.Add(label, line, points)
		return nil
	}

	if err := addLine("video", p.videoLine, color.RGBA{R: 242, G: 151, B: 39, A: 255}); err != nil {
		return err
	}
	if err := addLine("audio", p.audioLine, color.RGBA{R: 0, G: 223, B: 162, A: 255}); err != nil {
		return err
	}

	safeID := strings.ReplaceAll(p.shortID, "/", "_")
	return chart.Save(6*vg.Inch, 4*vg.Inch, filepath.Join(dir, safeID+"-throughput.png"))
}
