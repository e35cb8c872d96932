package yuv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planes struct {
	y, u, v    []byte
	sy, su, sv int
}

func newPlanes(w, h int) *planes {
	cw := (w + 1) / 2
	ch := (h + 1) / 2
	return &planes{
		y:  make([]byte, w*h),
		u:  make([]byte, cw*ch),
		v:  make([]byte, cw*ch),
		sy: w,
		su: cw,
		sv: cw,
	}
}

func solidRGBA(w, h int, r, g, b byte) []byte {
	buf := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		buf[i*4+0] = r
		buf[i*4+1] = g
		buf[i*4+2] = b
		buf[i*4+3] = 0xff
	}
	return buf
}

func TestRGBAToI420SolidColors(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b byte
		wantY   byte
		wantU   byte
		wantV   byte
	}{
		{"red", 255, 0, 0, 82, 90, 240},
		{"green", 0, 255, 0, 144, 54, 34},
		{"blue", 0, 0, 255, 41, 240, 110},
		{"white", 255, 255, 255, 235, 128, 128},
		{"black", 0, 0, 0, 16, 128, 128},
		{"gray", 128, 128, 128, 126, 128, 128},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			const w, h = 4, 4
			src := solidRGBA(w, h, tc.r, tc.g, tc.b)
			dst := newPlanes(w, h)

			RGBAToI420(src, w*4, dst.y, dst.sy, dst.u, dst.su, dst.v, dst.sv, w, h)

			for i, y := range dst.y {
				require.Equalf(t, tc.wantY, y, "luma sample %d", i)
			}
			for i := range dst.u {
				require.Equalf(t, tc.wantU, dst.u[i], "U sample %d", i)
				require.Equalf(t, tc.wantV, dst.v[i], "V sample %d", i)
			}
		})
	}
}

func TestBGRAToI420ChannelOrder(t *testing.T) {
	// Solid red in BGRA byte order: B=0, G=0, R=255.
	const w, h = 2, 2
	src := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		src[i*4+2] = 0xff
		src[i*4+3] = 0xff
	}
	dst := newPlanes(w, h)

	BGRAToI420(src, w*4, dst.y, dst.sy, dst.u, dst.su, dst.v, dst.sv, w, h)

	assert.Equal(t, byte(82), dst.y[0])
	assert.Equal(t, byte(90), dst.u[0])
	assert.Equal(t, byte(240), dst.v[0])

	// The same bytes read as RGBA are solid blue.
	dst2 := newPlanes(w, h)
	RGBAToI420(src, w*4, dst2.y, dst2.sy, dst2.u, dst2.su, dst2.v, dst2.sv, w, h)
	assert.Equal(t, byte(41), dst2.y[0])
	assert.Equal(t, byte(240), dst2.u[0])
	assert.Equal(t, byte(110), dst2.v[0])
}

func TestOddDimensions(t *testing.T) {
	// 3x3 exercises the clamped right column and bottom row.
	const w, h = 3, 3
	src := solidRGBA(w, h, 255, 0, 0)
	dst := newPlanes(w, h)
	require.Len(t, dst.u, 4)

	RGBAToI420(src, w*4, dst.y, dst.sy, dst.u, dst.su, dst.v, dst.sv, w, h)

	for i := 0; i < w*h; i++ {
		assert.Equal(t, byte(82), dst.y[i])
	}
	for i := 0; i < 4; i++ {
		assert.Equal(t, byte(90), dst.u[i])
		assert.Equal(t, byte(240), dst.v[i])
	}
}

func TestZeroDimensionsWriteNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		RGBAToI420(nil, 0, nil, 0, nil, 0, nil, 0, 0, 0)
		BGRAToI420(nil, 0, nil, 0, nil, 0, nil, 0, 0, 480)
		RGBAToI420(nil, 0, nil, 0, nil, 0, nil, 0, 640, 0)
	})
}

func TestPaddedSourceStride(t *testing.T) {
	// Two white pixels per row, stride padded to 16 bytes with garbage.
	const w, h = 2, 2
	const stride = 16
	src := make([]byte, stride*h)
	for i := range src {
		src[i] = 0xaa
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*stride + x*4
			src[off], src[off+1], src[off+2], src[off+3] = 0xff, 0xff, 0xff, 0xff
		}
	}
	dst := newPlanes(w, h)

	RGBAToI420(src, stride, dst.y, dst.sy, dst.u, dst.su, dst.v, dst.sv, w, h)

	for i := 0; i < w*h; i++ {
		assert.Equal(t, byte(235), dst.y[i])
	}
	assert.Equal(t, byte(128), dst.u[0])
	assert.Equal(t, byte(128), dst.v[0])
}

func TestChromaBlockAverage(t *testing.T) {
	// One 2x2 block with four distinct red levels; chroma must come from
	// the rounded average (10+20+30+40+2)/4 = 25.
	const w, h = 2, 2
	src := make([]byte, w*h*4)
	for i, r := range []byte{10, 20, 30, 40} {
		src[i*4+0] = r
		src[i*4+3] = 0xff
	}
	dst := newPlanes(w, h)

	RGBAToI420(src, w*4, dst.y, dst.sy, dst.u, dst.su, dst.v, dst.sv, w, h)

	assert.Equal(t, []byte{19, 21, 24, 26}, dst.y)
	assert.Equal(t, byte(124), dst.u[0])
	assert.Equal(t, byte(139), dst.v[0])
}
