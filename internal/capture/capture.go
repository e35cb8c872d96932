// Package capture enumerates capture sources and produces raw packed-pixel
// frames from the platform screen grabber, one tick at a time.
package capture

import "errors"

// SourceKind distinguishes whole displays from single application windows.
type SourceKind int

const (
	SourceScreen SourceKind = iota
	SourceWindow
)

func (k SourceKind) String() string {
	switch k {
	case SourceScreen:
		return "screen"
	case SourceWindow:
		return "window"
	}
	return "unknown"
}

// Source is one capturable display or window.
type Source struct {
	ID    string
	Title string
	Kind  SourceKind
}

// PixelFormat identifies the packed byte order of a raw frame.
type PixelFormat int

const (
	// FormatRGBA stores R at byte 0 of each 4-byte pixel.
	FormatRGBA PixelFormat = iota
	// FormatBGRA stores B at byte 0, the layout of little-endian 32-bit
	// ARGB capture APIs.
	FormatBGRA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatBGRA:
		return "bgra"
	}
	return "unknown"
}

// Frame is one captured frame in packed interleaved form. Data is borrowed
// from the backend and is valid only for the duration of the callback that
// delivers it; it must never be retained.
type Frame struct {
	Width  int
	Height int
	Stride int // bytes per row
	Format PixelFormat
	Data   []byte
}

// Result classifies the outcome of one capture tick.
type Result int

const (
	// ResultSuccess delivers a usable frame.
	ResultSuccess Result = iota
	// ResultErrorTemporary marks a glitch expected to clear on its own.
	// The tick is skipped.
	ResultErrorTemporary
	// ResultErrorPermanent marks a failure the session will not recover
	// from, such as the captured source disappearing.
	ResultErrorPermanent
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultErrorTemporary:
		return "temporary-error"
	case ResultErrorPermanent:
		return "permanent-error"
	}
	return "unknown"
}

// Callback receives the outcome of one tick. frame is non-nil only for
// ResultSuccess. The callback runs synchronously inside Engine.Tick and
// must not block.
type Callback func(result Result, frame *Frame)

// Options configure a capture session.
type Options struct {
	// Kind selects displays or application windows.
	Kind SourceKind
	// IncludeCursor asks the backend to composite the pointer into
	// captured frames. Support depends on the backend.
	IncludeCursor bool
	// SystemPicker defers source selection to a platform chooser UI
	// where one exists. Backends without one ignore it.
	SystemPicker bool
}

var (
	// ErrSourceLost reports that the captured display or window is gone.
	// Backends wrap it to mark a grab failure as permanent.
	ErrSourceLost = errors.New("capture source lost")

	// ErrAlreadyStarted reports a second Start on a running engine.
	ErrAlreadyStarted = errors.New("capture already started")

	// ErrNoDisplays reports that no display is available to capture.
	ErrNoDisplays = errors.New("no active displays")

	// ErrWindowCaptureUnsupported reports that the backend cannot
	// enumerate application windows.
	ErrWindowCaptureUnsupported = errors.New("window capture not supported by this backend")
)
