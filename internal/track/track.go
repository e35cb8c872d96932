package track

import (
	"fmt"
	"strings"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	"github.com/pion/mediadevices/pkg/codec/x264"
)

var _ mediadevices.VideoSource = (*Source)(nil)

// Codec identifies the video codec used for the published track.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecVP8  Codec = "vp8"
	CodecVP9  Codec = "vp9"
)

// ParseCodec maps a config string to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(s)); c {
	case CodecH264, CodecVP8, CodecVP9:
		return c, nil
	}
	return "", fmt.Errorf("track: unknown codec %q", s)
}

// EncoderConfig bounds the encoder behind the track.
type EncoderConfig struct {
	Codec            Codec
	BitRate          int // bits per second
	KeyFrameInterval int // frames between keyframes, 0 means 60
}

// NewSelector builds the codec selector backing both the published track
// and the peer connection's media engine. The same selector must be used
// for both: the codecs offered in SDP have to match what the track
// actually encodes with.
func NewSelector(cfg EncoderConfig) (*mediadevices.CodecSelector, error) {
	kfi := cfg.KeyFrameInterval
	if kfi == 0 {
		kfi = 60
	}
	switch cfg.Codec {
	case CodecH264:
		params, err := x264.NewParams()
		if err != nil {
			return nil, fmt.Errorf("track: x264: %w", err)
		}
		params.BitRate = cfg.BitRate
		params.KeyFrameInterval = kfi
		params.Preset = x264.PresetUltrafast
		return mediadevices.NewCodecSelector(mediadevices.WithVideoEncoders(&params)), nil
	case CodecVP8:
		params, err := vpx.NewVP8Params()
		if err != nil {
			return nil, fmt.Errorf("track: vp8: %w", err)
		}
		params.BitRate = cfg.BitRate
		params.KeyFrameInterval = kfi
		return mediadevices.NewCodecSelector(mediadevices.WithVideoEncoders(&params)), nil
	case CodecVP9:
		params, err := vpx.NewVP9Params()
		if err != nil {
			return nil, fmt.Errorf("track: vp9: %w", err)
		}
		params.BitRate = cfg.BitRate
		params.KeyFrameInterval = kfi
		return mediadevices.NewCodecSelector(mediadevices.WithVideoEncoders(&params)), nil
	}
	return nil, fmt.Errorf("track: unknown codec %q", cfg.Codec)
}

// NewScreenShare wraps the sink in an encoded local video track. The
// sink's ID becomes the track ID remote peers see.
func NewScreenShare(src *Source, selector *mediadevices.CodecSelector) mediadevices.Track {
	return mediadevices.NewVideoTrack(src, selector)
}
