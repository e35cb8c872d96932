package track

import (
	"image"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast/internal/video"
)

func redFrame(w, h int) *video.Frame {
	f := video.NewFrame(w, h)
	for i := range f.Y {
		f.Y[i] = 82
	}
	for i := range f.U {
		f.U[i] = 90
		f.V[i] = 240
	}
	return f
}

func TestWriteThenRead(t *testing.T) {
	s := NewSource("screen_share", video.Resolution{Width: 4, Height: 4})
	f := redFrame(4, 4)

	s.WriteFrame(f)

	img, release, err := s.Read()
	require.NoError(t, err)
	defer release()

	ycc, ok := img.(*image.YCbCr)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 4, 4), ycc.Rect)
	assert.Equal(t, byte(82), ycc.Y[0])
	assert.Equal(t, byte(90), ycc.Cb[0])
	assert.Equal(t, byte(240), ycc.Cr[0])
}

func TestWriteCopiesPlanes(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 2, Height: 2})
	f := redFrame(2, 2)
	s.WriteFrame(f)

	// The pipeline reuses its frame; later overwrites must not leak into
	// the frame the reader sees.
	f.Y[0] = 0

	img, release, err := s.Read()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, byte(82), img.(*image.YCbCr).Y[0])
}

func TestLatestWins(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 2, Height: 2})

	a := video.NewFrame(2, 2)
	a.Y[0] = 1
	b := video.NewFrame(2, 2)
	b.Y[0] = 2

	s.WriteFrame(a)
	s.WriteFrame(b)

	img, release, err := s.Read()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, byte(2), img.(*image.YCbCr).Y[0])
	assert.Equal(t, uint64(1), s.Drops())
}

func TestReadBlocksUntilWrite(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 2, Height: 2})

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.WriteFrame(redFrame(2, 2))
	}()

	img, release, err := s.Read()
	require.NoError(t, err)
	defer release()
	assert.NotNil(t, img)
}

func TestCloseWakesReader(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 2, Height: 2})

	errCh := make(chan error, 1)
	go func() {
		_, _, err := s.Read()
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("reader not woken by Close")
	}
}

func TestWriteAfterCloseDropped(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 2, Height: 2})
	require.NoError(t, s.Close())

	s.WriteFrame(redFrame(2, 2))

	_, _, err := s.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReleaseRecyclesBuffer(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 2, Height: 2})
	s.WriteFrame(redFrame(2, 2))

	img, release, err := s.Read()
	require.NoError(t, err)
	release()

	s.WriteFrame(redFrame(2, 2))
	img2, release2, err := s.Read()
	require.NoError(t, err)
	defer release2()

	assert.Same(t, img, img2)
}

func TestResolutionChangePerWrite(t *testing.T) {
	s := NewSource("", video.Resolution{Width: 1920, Height: 1080})
	s.WriteFrame(redFrame(1920, 1080))

	img, release, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1920, 1080), img.Bounds())
	release()

	s.WriteFrame(redFrame(1280, 720))
	img, release, err = s.Read()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, image.Rect(0, 0, 1280, 720), img.Bounds())

	// Creation resolution is fixed even when written frames change.
	assert.Equal(t, video.Resolution{Width: 1920, Height: 1080}, s.Resolution())
}

func TestGeneratedIDs(t *testing.T) {
	a := NewSource("", video.Resolution{})
	b := NewSource("", video.Resolution{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())

	named := NewSource("screen_share", video.Resolution{})
	assert.Equal(t, "screen_share", named.ID())
}
