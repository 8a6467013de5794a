package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/coursecast/coursecast/authz"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/env"
	"github.com/coursecast/coursecast/iceservers"
	"github.com/coursecast/coursecast/mediaenc"
	"github.com/coursecast/coursecast/rtcengine"
	"github.com/coursecast/coursecast/store"
	"github.com/google/uuid"
	"github.com/pion/interceptor/pkg/cc"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

// Manager is the explicitly constructed service that begins and ends
// recording sessions; it owns no global state, only what's passed to New.
type Manager struct {
	registry *Registry
	authz    authz.Authorizer
	store    store.MetadataStore
	cfg      config.Config
}

// New builds a Manager. registry, az, and metaStore are all required; a nil
// authorizer or store is a programming error, not a runtime one.
func New(registry *Registry, az authz.Authorizer, metaStore store.MetadataStore, cfg config.Config) *Manager {
	return &Manager{registry: registry, authz: az, store: metaStore, cfg: cfg}
}

// Begin authorizes principal to record divisionID, negotiates a peer
// connection from sdpOffer, registers the session in Negotiating, and
// returns the SDP answer once ICE gathering completes. It does not wait for
// the connection: a background wait stops and deregisters the session if it
// hasn't reached Recording within the negotiation timeout, per the state
// machine Negotiating -> Recording | Closed.
func (mgr *Manager) Begin(ctx context.Context, principal authz.Principal, divisionID, sdpOffer string) (sessionID, sdpAnswer string, err error) {
	if !mgr.authz.MayRecord(principal, divisionID) {
		return "", "", newError(Authorization, "begin", nil)
	}

	estimatorCh := make(chan cc.BandwidthEstimator, 1)
	api, err := rtcengine.NewAPI(estimatorCh)
	if err != nil {
		return "", "", newError(Internal, "begin", err)
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceservers.Default()})
	if err != nil {
		return "", "", newError(Internal, "begin", err)
	}

	id := uuid.NewString()
	outputPath := filepath.Join(env.RecordingsDir, fmt.Sprintf("%s.%s", id, mgr.cfg.Session.ContainerExt))
	enc, err := mediaenc.NewFFmpegEncoder(
		outputPath,
		mgr.cfg.Video.CanvasWidth, mgr.cfg.Video.CanvasHeight, mgr.cfg.Video.TickRate,
		mgr.cfg.Audio.SampleRate, mgr.cfg.Audio.Channels,
		mgr.cfg.Session, id,
	)
	if err != nil {
		_ = pc.Close()
		return "", "", newError(Internal, "begin", err)
	}

	s := newSession(id, divisionID, pc, mgr.cfg, enc)
	s.outputPath = outputPath

	pc.OnTrack(s.onTrack)
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateConnected:
			s.tryStartRecording()
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			go mgr.forceEnd(s)
		}
	})

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdpOffer}
	if err := pc.SetRemoteDescription(offer); err != nil {
		_ = pc.Close()
		return "", "", newError(BadOffer, "begin", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		_ = pc.Close()
		return "", "", newError(BadOffer, "begin", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		_ = pc.Close()
		return "", "", newError(BadOffer, "begin", err)
	}
	<-gatherComplete

	mgr.registry.insert(s)

	timeout := time.Duration(mgr.cfg.Session.NegotiationTimeoutSec) * time.Second
	go func() {
		if err := s.awaitRecording(timeout); err != nil {
			log.Warn().Str("context", "session").Str("session", s.ID).Msg("negotiation_timed_out")
			_ = s.stop(0)
			mgr.registry.remove(s.ID)
		}
	}()

	return s.ID, pc.LocalDescription().SDP, nil
}

// End stops a recording in progress, flushes its encoder, records the
// resulting file's metadata, and deregisters the session. Calling End
// twice on the same id returns NotFound the second time: the registry no
// longer holds a Closed session, and a call that arrives while the first is
// still flushing finds the session Stopping.
func (mgr *Manager) End(ctx context.Context, sessionID string) error {
	s, ok := mgr.registry.Get(sessionID)
	if !ok {
		return newError(NotFound, "end", nil)
	}
	if st := s.State(); st == Stopping || st == Closed {
		return newError(NotFound, "end", nil)
	}

	flushTimeout := time.Duration(mgr.cfg.Session.FlushTimeoutSec) * time.Second
	flushErr := s.stop(flushTimeout)
	mgr.registry.remove(sessionID)

	if flushErr != nil {
		return newError(EncoderFailure, "end", flushErr)
	}

	if _, err := mgr.store.RecordVideo(filepath.Base(s.outputPath), s.DivisionID, time.Now()); err != nil {
		log.Error().Str("context", "session").Str("session", s.ID).Err(err).Msg("metadata_record_failed")
		return newError(Internal, "end", err)
	}
	return nil
}

// forceEnd is invoked from a peer connection's own state-change callback
// when it fails or closes outside of an explicit End call.
func (mgr *Manager) forceEnd(s *Session) {
	if s.State() == Closed || s.State() == Stopping {
		return
	}
	_ = mgr.End(context.Background(), s.ID)
}
