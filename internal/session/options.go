package session

import "github.com/roomcast/roomcast/internal/track"

// TrackSource marks what a published track carries. It travels with the
// offer so room clients can label the stream before media flows.
type TrackSource string

const (
	TrackSourceUnknown     TrackSource = ""
	TrackSourceCamera      TrackSource = "camera"
	TrackSourceScreenshare TrackSource = "screenshare"
)

// PublishOptions describe a publication to the room.
type PublishOptions struct {
	Source     TrackSource
	VideoCodec track.Codec
}
