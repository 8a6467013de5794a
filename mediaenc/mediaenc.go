// Package mediaenc drains the compositor's and mixer's frame streams to a
// container file on disk.
package mediaenc

import (
	"context"

	"github.com/coursecast/coursecast/media/audio"
	"github.com/coursecast/coursecast/media/video"
)

// MediaEncoder accepts composited video frames and mixed audio frames on
// the clock's schedule and muxes them to a single output file.
type MediaEncoder interface {
	WriteVideo(f video.Frame) error
	WriteAudio(f audio.Frame) error
	// FlushAndClose finalizes the container and closes the output file,
	// bounded by ctx's deadline; on timeout the file is closed as-is and
	// an error is returned, but the caller must still treat the encoder
	// as closed.
	FlushAndClose(ctx context.Context) error
}
