package session

import (
	"fmt"
	"image"
	"io"
	"os/exec"
	"time"

	"github.com/coursecast/coursecast/media/audio"
	"github.com/coursecast/coursecast/media/video"
	"github.com/pion/rtcp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	"github.com/pion/webrtc/v3/pkg/media/samplebuilder"
	"github.com/rs/zerolog/log"
)

// DefaultWidth/DefaultHeight are the fixed frame geometry ffmpeg scales
// every incoming H264 track to before it reaches the compositor.
// DefaultFrameRate is declared alongside them; the decoder does not use it.
const (
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultFrameRate = 30
)

// decodeVideoTrack depacketizes H264 RTP into an Annex-B stream and pipes
// it through ffmpeg to get back raw RGBA frames, which are pushed onto src
// on arrival. Tracks in any other codec, VP9 included, are declined. For
// VP8 the reason is that its raw elementary stream needs
// IVF container framing, whose trailing frame-count field requires seeking
// a file ffmpeg can patch after the fact, which a live pipe can't provide.
func (s *Session) decodeVideoTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver, src *video.Source) {
	defer s.compositor.Detach(track.ID())

	if track.Codec().MimeType != webrtc.MimeTypeH264 {
		log.Warn().Str("context", "session").Str("room", s.shortID).
			Str("codec", track.Codec().MimeType).Msg("video_codec_decode_unsupported")
		return
	}

	pr, pw := io.Pipe()
	cmd := exec.Command("ffmpeg",
		"-f", "h264", "-i", "pipe:0",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", DefaultWidth, DefaultHeight),
		"pipe:1",
	)
	cmd.Stdin = pr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error().Str("context", "session").Err(err).Msg("video_decoder_pipe_failed")
		return
	}
	if err := cmd.Start(); err != nil {
		log.Error().Str("context", "session").Err(err).Msg("video_decoder_start_failed")
		return
	}
	defer cmd.Wait()

	go requestKeyframesPeriodically(s.pc, receiver, s.doneCh)

	go func() {
		defer pw.Close()
		sb := samplebuilder.New(50, &codecs.H264Packet{}, track.Codec().ClockRate)
		for {
			pkt, _, err := track.ReadRTP()
			if err != nil {
				return
			}
			sb.Push(pkt)
			for sample := sb.Pop(); sample != nil; sample = sb.Pop() {
				if _, err := pw.Write(sample.Data); err != nil {
					return
				}
			}
		}
	}()

	frameSize := DefaultWidth * DefaultHeight * 4
	for {
		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(stdout, buf); err != nil {
			return
		}
		img := &image.RGBA{
			Pix:    buf,
			Stride: DefaultWidth * 4,
			Rect:   image.Rect(0, 0, DefaultWidth, DefaultHeight),
		}
		src.Push(img)
	}
}

// decodeAudioTrack depacketizes Opus RTP into an Ogg Opus stream and pipes
// it through ffmpeg to get back raw S16LE stereo samples at the mixer's
// native rate, which are pushed onto src as they arrive.
func (s *Session) decodeAudioTrack(track *webrtc.TrackRemote, src *audio.Source, sampleRate, channels, samplesPerFrame int) {
	defer s.mixer.Detach(track.ID())

	pr, pw := io.Pipe()
	cmd := exec.Command("ffmpeg",
		"-f", "ogg", "-i", "pipe:0",
		"-f", "s16le", "-ar", fmt.Sprintf("%d", sampleRate), "-ac", fmt.Sprintf("%d", channels),
		"pipe:1",
	)
	cmd.Stdin = pr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error().Str("context", "session").Err(err).Msg("audio_decoder_pipe_failed")
		return
	}
	if err := cmd.Start(); err != nil {
		log.Error().Str("context", "session").Err(err).Msg("audio_decoder_start_failed")
		return
	}
	defer cmd.Wait()

	go func() {
		defer pw.Close()
		ogg, err := oggwriter.NewWith(pw, uint32(sampleRate), uint16(channels))
		if err != nil {
			log.Error().Str("context", "session").Err(err).Msg("ogg_writer_failed")
			return
		}
		defer ogg.Close()

		// one Opus frame per RTP packet: no reassembly needed, so every
		// packet is written straight through in arrival order.
		for {
			pkt, _, err := track.ReadRTP()
			if err != nil {
				return
			}
			if err := ogg.WriteRTP(pkt); err != nil {
				return
			}
		}
	}()

	frameBytes := samplesPerFrame * channels * 2
	for {
		buf := make([]byte, frameBytes)
		if _, err := io.ReadFull(stdout, buf); err != nil {
			return
		}
		samples := make([]int16, samplesPerFrame*channels)
		for i := range samples {
			samples[i] = int16(buf[i*2]) | int16(buf[i*2+1])<<8
		}
		src.Push(samples, sampleRate, sampleRate, samplesPerFrame)
	}
}

// requestKeyframesPeriodically sends a PLI every few seconds so a decoder
// that missed the initial keyframe (or one dropped mid-stream) can recover,
// stopping once doneCh closes.
func requestKeyframesPeriodically(pc *webrtc.PeerConnection, receiver *webrtc.RTPReceiver, doneCh <-chan struct{}) {
	track := receiver.Track()
	if track == nil {
		return
	}
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-doneCh:
			return
		case <-ticker.C:
			_ = pc.WriteRTCP([]rtcp.Packet{
				&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())},
			})
		}
	}
}
