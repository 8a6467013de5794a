// Package session implements the Recording Session: it owns one peer
// connection, one compositor, one mixer, and one media encoder from
// negotiation through encoder finalization.
package session

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/diagnostics"
	"github.com/coursecast/coursecast/media/audio"
	"github.com/coursecast/coursecast/media/video"
	"github.com/coursecast/coursecast/mediaenc"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Session is a fixed record with an explicit state enum; fields below the
// state line are only meaningful once negotiation has produced them.
type Session struct {
	ID         string
	DivisionID string

	mu    sync.Mutex
	state State

	pc         *webrtc.PeerConnection
	compositor *video.Compositor
	mixer      *audio.Mixer
	encoder    mediaenc.MediaEncoder

	cfg        config.Config
	shortID    string
	outputPath string

	trackCount  int32
	connectedCh chan struct{}
	connectOnce sync.Once

	doneCh    chan struct{}
	doneOnce  sync.Once
	eg        *errgroup.Group
	egCancel  context.CancelFunc

	plot *diagnostics.ThroughputPlot
}

func newSession(id, divisionID string, pc *webrtc.PeerConnection, cfg config.Config, enc mediaenc.MediaEncoder) *Session {
	return &Session{
		ID:          id,
		DivisionID: divisionID,
		state:       Negotiating,
		pc:          pc,
		compositor:  video.New(cfg.Video, id),
		mixer:       audio.New(cfg.Audio, id),
		encoder:     enc,
		cfg:         cfg,
		shortID:     id,
		connectedCh: make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Info().Str("context", "session").Str("session", s.ID).
		Str("from", s.state.String()).Str("to", next.String()).Msg("session_state_changed")
	s.state = next
}

// onTrack wraps an arriving remote track into the compositor/mixer source
// set and starts its decode loop; tracks never back-reference the session,
// they only ever hand frames to the compositor/mixer via Source.Push.
func (s *Session) onTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	switch track.Kind() {
	case webrtc.RTPCodecTypeVideo:
		src := s.compositor.Attach(track.ID())
		s.markTrackReady()
		go s.decodeVideoTrack(track, receiver, src)
	case webrtc.RTPCodecTypeAudio:
		src := s.mixer.Attach(track.ID())
		s.markTrackReady()
		go s.decodeAudioTrack(track, src, s.cfg.Audio.SampleRate, s.cfg.Audio.Channels, s.cfg.Audio.SamplesPerFrame)
	}
}

// markTrackReady transitions Negotiating->Recording once the peer
// connection is connected and at least one track has arrived.
func (s *Session) markTrackReady() {
	if atomic.AddInt32(&s.trackCount, 1) == 1 {
		s.tryStartRecording()
	}
}

func (s *Session) tryStartRecording() {
	s.mu.Lock()
	ready := s.state == Negotiating && s.pc.ConnectionState() == webrtc.PeerConnectionStateConnected && atomic.LoadInt32(&s.trackCount) > 0
	s.mu.Unlock()
	if !ready {
		return
	}
	s.setState(Recording)
	s.connectOnce.Do(func() { close(s.connectedCh) })
	s.startTasks()
}

// startTasks launches the compositor and mixer pull loops, one goroutine
// each; each loop writes its frames straight to the encoder, and there is no
// separate encoder-drain goroutine. The two share an errgroup context, so an
// encoder write failure in one loop stops the other at its next tick.
func (s *Session) startTasks() {
	ctx, cancel := context.WithCancel(context.Background())
	s.egCancel = cancel
	eg, egCtx := errgroup.WithContext(ctx)
	s.eg = eg

	s.plot = diagnostics.NewThroughputPlot(s.shortID)

	eg.Go(func() error {
		var writeErr error
		s.compositor.Run(func(f video.Frame) bool {
			s.plot.AddVideoBytes(len(f.Y) + len(f.Cb) + len(f.Cr))
			if err := s.encoder.WriteVideo(f); err != nil {
				log.Error().Str("context", "session").Str("session", s.ID).Err(err).Msg("encoder_write_video_failed")
				writeErr = err
				return false
			}
			select {
			case <-s.doneCh:
				return false
			case <-egCtx.Done():
				return false
			default:
				return true
			}
		})
		return writeErr
	})
	eg.Go(func() error {
		var writeErr error
		s.mixer.Run(func(f audio.Frame) bool {
			s.plot.AddAudioBytes(len(f.Samples) * 2)
			if err := s.encoder.WriteAudio(f); err != nil {
				log.Error().Str("context", "session").Str("session", s.ID).Err(err).Msg("encoder_write_audio_failed")
				writeErr = err
				return false
			}
			select {
			case <-s.doneCh:
				return false
			case <-egCtx.Done():
				return false
			default:
				return true
			}
		})
		return writeErr
	})
}

// awaitRecording blocks until the session reaches Recording or the
// negotiation timeout elapses.
func (s *Session) awaitRecording(timeout time.Duration) error {
	select {
	case <-s.connectedCh:
		return nil
	case <-time.After(timeout):
		return newError(Transport, "begin", context.DeadlineExceeded)
	}
}

// stop tears down the compositor, mixer, and peer connection and flushes
// the encoder, bounded by flushTimeout.
func (s *Session) stop(flushTimeout time.Duration) error {
	s.setState(Stopping)

	s.doneOnce.Do(func() { close(s.doneCh) })
	s.compositor.Stop()
	s.mixer.Stop()
	if s.egCancel != nil {
		s.egCancel()
	}
	if s.eg != nil {
		_ = s.eg.Wait()
	}
	_ = s.pc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	flushErr := s.encoder.FlushAndClose(ctx)

	if s.plot != nil {
		if err := s.plot.Save(filepath.Dir(s.outputPath)); err != nil {
			log.Warn().Str("context", "session").Str("session", s.ID).Err(err).Msg("throughput_plot_save_failed")
		}
	}

	s.setState(Closed)
	return flushErr
}
