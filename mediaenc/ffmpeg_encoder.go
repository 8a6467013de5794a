package mediaenc

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/media/audio"
	"github.com/coursecast/coursecast/media/video"
	"github.com/rs/zerolog/log"
)

// FFmpegEncoder shells out to ffmpeg rather than linking a media framework
// via cgo: one rawvideo/yuv420p pipe and one s16le/48kHz-stereo pipe feed a
// single ffmpeg process that muxes both into one container. This is the
// portable generalization of a cgo pipeline adapter — it needs no
// build-time media framework headers, only an ffmpeg binary on PATH.
type FFmpegEncoder struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	videoW  *os.File
	audioW  *os.File
	stderr  io.ReadCloser
	closed  bool
	shortID string
}

// NewFFmpegEncoder starts ffmpeg writing to outputPath. width/height/fps
// describe the compositor's fixed canvas; sampleRate/channels describe the
// mixer's fixed output format.
func NewFFmpegEncoder(outputPath string, width, height int, fps float64, sampleRate, channels int, cfg config.SessionConfig, shortID string) (*FFmpegEncoder, error) {
	videoR, videoW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	audioR, audioW, err := os.Pipe()
	if err != nil {
		videoR.Close()
		videoW.Close()
		return nil, err
	}

	args := []string{
		"-y",
		"-f", "rawvideo", "-pix_fmt", "yuv420p",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%.2f", fps),
		"-i", "pipe:3",
		"-f", "s16le", "-ar", fmt.Sprintf("%d", sampleRate), "-ac", fmt.Sprintf("%d", channels),
		"-i", "pipe:4",
		"-map", "0:v", "-map", "1:a",
		"-c:v", "libx264", "-crf", cfg.VideoCRF, "-preset", cfg.EncoderPreset,
		"-c:a", "aac",
		outputPath,
	}
	cmd := exec.Command("ffmpeg", args...)
	cmd.ExtraFiles = []*os.File{videoR, audioR} // become fd 3 and 4 in the child

	stderr, err := cmd.StderrPipe()
	if err != nil {
		videoR.Close()
		videoW.Close()
		audioR.Close()
		audioW.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		videoR.Close()
		videoW.Close()
		audioR.Close()
		audioW.Close()
		return nil, err
	}
	// the parent only writes to these; the read ends now belong to the child
	videoR.Close()
	audioR.Close()

	e := &FFmpegEncoder{
		cmd:     cmd,
		videoW:  videoW,
		audioW:  audioW,
		stderr:  stderr,
		shortID: shortID,
	}
	go e.drainStderr()
	return e, nil
}

func (e *FFmpegEncoder) drainStderr() {
	buf := make([]byte, 4096)
	for {
		n, err := e.stderr.Read(buf)
		if n > 0 {
			log.Debug().Str("context", "mediaenc").Str("room", e.shortID).Str("ffmpeg", string(buf[:n])).Msg("ffmpeg_stderr")
		}
		if err != nil {
			return
		}
	}
}

// WriteVideo writes one composited frame's planes in I420 order.
func (e *FFmpegEncoder) WriteVideo(f video.Frame) error {
	for _, plane := range [][]byte{f.Y, f.Cb, f.Cr} {
		if _, err := e.videoW.Write(plane); err != nil {
			return err
		}
	}
	return nil
}

// WriteAudio writes one mixed frame as little-endian S16 samples.
func (e *FFmpegEncoder) WriteAudio(f audio.Frame) error {
	buf := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, err := e.audioW.Write(buf)
	return err
}

// FlushAndClose closes both input pipes (ffmpeg treats EOF as end of
// stream) and waits for the process to exit, bounded by ctx. On timeout the
// process is killed and the file is left as whatever ffmpeg had written.
func (e *FFmpegEncoder) FlushAndClose(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.videoW.Close()
	e.audioW.Close()

	waitCh := make(chan error, 1)
	go func() { waitCh <- e.cmd.Wait() }()

	select {
	case err := <-waitCh:
		return err
	case <-ctx.Done():
		_ = e.cmd.Process.Kill()
		<-waitCh
		return fmt.Errorf("mediaenc: flush timed out: %w", ctx.Err())
	}
}
