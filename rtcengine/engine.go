// Package rtcengine builds the pion WebRTC API shared by every recording
// session: codec registration, header extensions, and transport tuning are
// all set once at the API level and reused across sessions.
package rtcengine

import (
	"github.com/coursecast/coursecast/env"
	"github.com/pion/ice/v2"
	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/cc"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

const (
	portMin = 32768
	portMax = 60999

	// DefaultBitrate seeds the congestion controller's initial send-side
	// estimate before any feedback has arrived.
	DefaultBitrate = 80 * 8 * 1000
)

var videoRTCPFeedback = []webrtc.RTCPFeedback{
	{Type: "goog-remb", Parameter: ""},
	{Type: "ccm", Parameter: "fir"},
	{Type: "nack", Parameter: ""},
	{Type: "nack", Parameter: "pli"},
	{Type: "transport-cc", Parameter: ""},
}

var opusCodecs = []webrtc.RTPCodecParameters{
	{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType: "audio/opus", ClockRate: 48000, Channels: 2,
			SDPFmtpLine: "minptime=10;useinbandfec=1", RTCPFeedback: nil,
		},
		PayloadType: 111,
	},
}

var vp8Codecs = []webrtc.RTPCodecParameters{
	{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType: "video/VP8", ClockRate: 90000, RTCPFeedback: videoRTCPFeedback,
		},
		PayloadType: 96,
	},
}

var h264Codecs = []webrtc.RTPCodecParameters{
	{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType: "video/H264", ClockRate: 90000,
			SDPFmtpLine:  "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42001f",
			RTCPFeedback: videoRTCPFeedback,
		},
		PayloadType: 102,
	},
}

var vp9Codecs = []webrtc.RTPCodecParameters{
	{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType: "video/VP9", ClockRate: 90000,
			SDPFmtpLine: "profile-id=0", RTCPFeedback: videoRTCPFeedback,
		},
		PayloadType: 98,
	},
}

// NewAPI builds a pion API with every codec a browser might offer
// registered, NAT/mDNS settings tuned for a server behind a public IP, and
// an interceptor chain wired for RTCP feedback and send-side bandwidth
// estimation. estimatorCh receives one live cc.BandwidthEstimator per peer
// connection created with the returned API; estimation is always enabled.
func NewAPI(estimatorCh chan cc.BandwidthEstimator) (*webrtc.API, error) {
	s := webrtc.SettingEngine{}
	s.SetICEMulticastDNSMode(ice.MulticastDNSModeDisabled)
	s.SetEphemeralUDPPortRange(portMin, portMax)
	if len(env.PublicIP) > 0 {
		s.SetNAT1To1IPs([]string{env.PublicIP}, webrtc.ICECandidateTypeHost)
		log.Info().Str("context", "rtcengine").Str("ip", env.PublicIP).Msg("set_host_candidate")
	}

	m := &webrtc.MediaEngine{}
	for _, c := range opusCodecs {
		if err := m.RegisterCodec(c, webrtc.RTPCodecTypeAudio); err != nil {
			return nil, err
		}
	}
	for _, c := range vp8Codecs {
		if err := m.RegisterCodec(c, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, err
		}
	}
	for _, c := range h264Codecs {
		if err := m.RegisterCodec(c, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, err
		}
	}
	for _, c := range vp9Codecs {
		if err := m.RegisterCodec(c, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, err
		}
	}

	i := &interceptor.Registry{}
	if err := configureInterceptors(m, i, estimatorCh); err != nil {
		return nil, err
	}

	return webrtc.NewAPI(
		webrtc.WithSettingEngine(s),
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
	), nil
}
