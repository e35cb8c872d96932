// Package video holds the planar frame type shared by the capture pipeline
// and the outbound track.
package video

import (
	"fmt"
	"image"
	"time"
)

// Rotation is the rotation applied to a frame, in degrees clockwise.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Frame is one planar 4:2:0 frame. The luma plane is Width x Height and the
// two chroma planes are ceil(Width/2) x ceil(Height/2), each tightly packed.
// A Frame is reused from tick to tick; Resize reallocates the planes when
// the source dimensions change.
type Frame struct {
	Rotation  Rotation
	Width     int
	Height    int
	Y, U, V   []byte
	StrideY   int
	StrideU   int
	StrideV   int
	Timestamp time.Time
}

// NewFrame allocates a frame sized for width x height.
func NewFrame(width, height int) *Frame {
	f := &Frame{Rotation: Rotation0}
	f.Resize(width, height)
	return f
}

// Resize reallocates the planes for the new dimensions. Plane contents are
// undefined afterwards. Non-positive dimensions produce empty planes.
func (f *Frame) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cw := (width + 1) / 2
	ch := (height + 1) / 2
	f.Width = width
	f.Height = height
	f.StrideY = width
	f.StrideU = cw
	f.StrideV = cw
	f.Y = make([]byte, width*height)
	f.U = make([]byte, cw*ch)
	f.V = make([]byte, cw*ch)
}

// Resolution returns the frame's current dimensions.
func (f *Frame) Resolution() Resolution {
	return Resolution{Width: f.Width, Height: f.Height}
}

// YCbCr returns an image view sharing the frame's planes. The view stays
// valid until the next Resize; consumers that hold frames across ticks must
// copy the planes.
func (f *Frame) YCbCr() *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Y,
		Cb:             f.U,
		Cr:             f.V,
		YStride:        f.StrideY,
		CStride:        f.StrideU,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}
