// Package config loads the YAML-driven tunables for the media pipeline and
// server from a YAML file, layered over built-in defaults.
package config

import (
	"github.com/coursecast/coursecast/helpers"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// VideoConfig holds the video compositor's tunables.
type VideoConfig struct {
	CanvasWidth  int     `yaml:"canvasWidth"`
	CanvasHeight int     `yaml:"canvasHeight"`
	TickRate     float64 `yaml:"tickRate"`     // Hz
	PipWidthRatio float64 `yaml:"pipWidthRatio"`
	PipPadding   int     `yaml:"pipPadding"`
	StaleAfterMs int     `yaml:"staleAfterMs"`
}

// AudioConfig holds the audio mixer's tunables.
type AudioConfig struct {
	SampleRate      int `yaml:"sampleRate"`
	SamplesPerFrame int `yaml:"samplesPerFrame"`
	Channels        int `yaml:"channels"`
	RingFrames      int `yaml:"ringFrames"`
}

// SessionConfig holds recording session timeouts and encoder settings.
type SessionConfig struct {
	NegotiationTimeoutSec int    `yaml:"negotiationTimeoutSec"`
	FlushTimeoutSec       int    `yaml:"flushTimeoutSec"`
	ContainerExt          string `yaml:"containerExt"`
	VideoCRF              string `yaml:"videoCRF"`
	EncoderPreset         string `yaml:"encoderPreset"`
}

// RoomConfig holds room hub tunables.
type RoomConfig struct {
	PingIntervalSec int `yaml:"pingIntervalSec"`
	PongTimeoutSec  int `yaml:"pongTimeoutSec"`
}

// Config is the aggregate root holding every subsystem's tunables.
type Config struct {
	Video   VideoConfig   `yaml:"video"`
	Audio   AudioConfig   `yaml:"audio"`
	Session SessionConfig `yaml:"session"`
	Room    RoomConfig    `yaml:"room"`
}

// Current is populated by Load and read by every package that needs a
// tunable; it defaults to sane values so tests don't need a config file.
var Current = Default()

// Default returns the built-in tunables: a 1280x720 canvas at 30fps, 48kHz
// stereo audio in 20ms frames, and timeouts matched to the session state
// machine.
func Default() Config {
	return Config{
		Video: VideoConfig{
			CanvasWidth:   1280,
			CanvasHeight:  720,
			TickRate:      30,
			PipWidthRatio: 0.25,
			PipPadding:    10,
			StaleAfterMs:  1000,
		},
		Audio: AudioConfig{
			SampleRate:      48000,
			SamplesPerFrame: 960,
			Channels:        2,
			RingFrames:      10,
		},
		Session: SessionConfig{
			NegotiationTimeoutSec: 30,
			FlushTimeoutSec:       10,
			ContainerExt:          "mkv",
			VideoCRF:              "18",
			EncoderPreset:         "ultrafast",
		},
		Room: RoomConfig{
			PingIntervalSec: 20,
			PongTimeoutSec:  30,
		},
	}
}

// Load reads path (a YAML file) over the defaults. Missing files are not fatal here since
// the defaults are already usable; callers that need a hard dependency on
// the file existing should check the returned error.
func Load(path string) error {
	f, err := helpers.Open(path)
	if err != nil {
		log.Warn().Str("context", "config").Str("path", path).Err(err).Msg("config_file_missing_using_defaults")
		return err
	}
	defer f.Close()

	c := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&c); err != nil {
		return err
	}
	Current = c
	log.Info().Str("context", "config").Interface("config", Current).Msg("config_loaded")
	return nil
}
