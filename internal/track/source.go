// Package track turns the converted frame stream into an encoded WebRTC
// video track.
package track

import (
	"image"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/roomcast/roomcast/internal/video"
)

var sourceSeq atomic.Uint64

// Source is the outbound video sink. It is created exactly once, at the
// first captured frame's true resolution, and lives for the rest of the
// session. The capture callback writes the latest converted frame in; the
// encoder goroutine behind the published track reads frames out. Only the
// newest unread frame is kept: a write that lands before the previous frame
// was consumed replaces it, and the writer never blocks on the reader.
type Source struct {
	id  string
	res video.Resolution

	mu      sync.Mutex
	cond    *sync.Cond
	pending *image.YCbCr
	free    []*image.YCbCr
	closed  bool
	drops   uint64
}

// NewSource builds a sink for the given creation resolution. name becomes
// the source (and so the track) ID; empty names get a generated one. Frames
// written later may have other resolutions, the sink adapts per write.
func NewSource(name string, res video.Resolution) *Source {
	if name == "" {
		name = "screen-" + strconv.FormatUint(sourceSeq.Add(1), 10)
	}
	s := &Source{id: name, res: res}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Resolution returns the resolution the sink was created with.
func (s *Source) Resolution() video.Resolution {
	return s.res
}

// WriteFrame copies f's planes and makes them the pending frame, replacing
// any frame the reader has not picked up yet. Safe to call from the capture
// callback: it never waits on the reader. Writes after Close are dropped.
func (s *Source) WriteFrame(f *video.Frame) {
	buf := s.take(f.Width, f.Height)
	copy(buf.Y, f.Y)
	copy(buf.Cb, f.U)
	copy(buf.Cr, f.V)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.pending != nil {
		s.drops++
		s.park(s.pending)
	}
	s.pending = buf
	s.mu.Unlock()
	s.cond.Signal()
}

// Read blocks until a new frame is available or the source is closed.
// The release func hands the buffer back for reuse; the image must not be
// touched after calling it. A closed and drained source returns io.EOF.
func (s *Source) Read() (image.Image, func(), error) {
	s.mu.Lock()
	for s.pending == nil && !s.closed {
		s.cond.Wait()
	}
	if s.pending == nil {
		s.mu.Unlock()
		return nil, func() {}, io.EOF
	}
	img := s.pending
	s.pending = nil
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		s.park(img)
		s.mu.Unlock()
	}
	return img, release, nil
}

// ID implements the mediadevices source interface.
func (s *Source) ID() string {
	return s.id
}

// Close wakes any blocked reader with io.EOF. Idempotent.
func (s *Source) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
	return nil
}

// Drops reports how many written frames were replaced before being read.
func (s *Source) Drops() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops
}

// take returns a recycled buffer of the right size or allocates one.
func (s *Source) take(w, h int) *image.YCbCr {
	s.mu.Lock()
	for len(s.free) > 0 {
		b := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		if b.Rect.Dx() == w && b.Rect.Dy() == h {
			s.mu.Unlock()
			return b
		}
		// stale size from before a resolution change
	}
	s.mu.Unlock()
	return image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
}

// park recycles a buffer. Caller holds mu.
func (s *Source) park(img *image.YCbCr) {
	if len(s.free) < 2 {
		s.free = append(s.free, img)
	}
}
