package rtcengine

import (
	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/cc"
	"github.com/pion/interceptor/pkg/gcc"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v3"
)

// configureInterceptors wires NACK-based retransmission, RTCP sender/
// receiver reports, TWCC bandwidth feedback, and abs-send-time timing —
// the standard pion interceptor stack, adapted from
// pion/webrtc's own ConfigureNack/ConfigureTWCCSender helpers.
func configureInterceptors(m *webrtc.MediaEngine, i *interceptor.Registry, estimatorCh chan cc.BandwidthEstimator) error {
	if err := webrtc.ConfigureNack(m, i); err != nil {
		return err
	}
	if err := webrtc.ConfigureRTCPReports(i); err != nil {
		return err
	}
	if err := configureEstimator(i, estimatorCh); err != nil {
		return err
	}
	if err := webrtc.ConfigureTWCCHeaderExtensionSender(m, i); err != nil {
		return err
	}
	if err := webrtc.ConfigureTWCCSender(m, i); err != nil {
		return err
	}
	if err := configureHeaderExtensions(m); err != nil {
		return err
	}
	return nil
}

func configureEstimator(i *interceptor.Registry, estimatorCh chan cc.BandwidthEstimator) error {
	congestionController, err := cc.NewInterceptor(func() (cc.BandwidthEstimator, error) {
		return gcc.NewSendSideBWE(gcc.SendSideBWEInitialBitrate(DefaultBitrate))
	})
	if err != nil {
		return err
	}
	congestionController.OnNewPeerConnection(func(_ string, estimator cc.BandwidthEstimator) {
		estimatorCh <- estimator
	})
	i.Add(congestionController)
	return nil
}

func configureHeaderExtensions(m *webrtc.MediaEngine) error {
	for _, codecType := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeVideo, webrtc.RTPCodecTypeAudio} {
		if err := m.RegisterHeaderExtension(
			webrtc.RTPHeaderExtensionCapability{URI: sdp.ABSSendTimeURI}, codecType,
		); err != nil {
			return err
		}
		if err := m.RegisterHeaderExtension(
			webrtc.RTPHeaderExtensionCapability{URI: sdp.SDESMidURI}, codecType,
		); err != nil {
			return err
		}
	}
	return nil
}
