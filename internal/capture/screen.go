package capture

import (
	"fmt"
	"image"
	"strconv"

	"github.com/kbinani/screenshot"
)

// screenBackend grabs whole displays through the platform screenshot API.
// It has no window enumeration and no system picker; cursor compositing
// follows whatever the platform API does.
type screenBackend struct {
	opts    Options
	display int
	bounds  image.Rectangle
}

func newBackend(opts Options) (Backend, error) {
	if opts.Kind == SourceWindow {
		return nil, ErrWindowCaptureUnsupported
	}
	return &screenBackend{opts: opts}, nil
}

func (b *screenBackend) Sources() ([]Source, error) {
	n := screenshot.NumActiveDisplays()
	sources := make([]Source, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		sources = append(sources, Source{
			ID:    strconv.Itoa(i),
			Title: fmt.Sprintf("Display %d (%dx%d)", i, bounds.Dx(), bounds.Dy()),
			Kind:  SourceScreen,
		})
	}
	return sources, nil
}

func (b *screenBackend) Start(src *Source) error {
	display := 0
	if src != nil {
		d, err := strconv.Atoi(src.ID)
		if err != nil {
			return fmt.Errorf("capture: bad source id %q: %w", src.ID, err)
		}
		display = d
	}
	if n := screenshot.NumActiveDisplays(); n == 0 || display >= n {
		return fmt.Errorf("capture: display %d: %w", display, ErrNoDisplays)
	}
	b.display = display
	b.bounds = screenshot.GetDisplayBounds(display)
	return nil
}

// Grab captures the display. Bounds are re-read on every call so a display
// mode switch shows up as a resolution change, not an error.
func (b *screenBackend) Grab() (*Frame, error) {
	if b.display >= screenshot.NumActiveDisplays() {
		return nil, fmt.Errorf("capture: display %d: %w", b.display, ErrSourceLost)
	}
	b.bounds = screenshot.GetDisplayBounds(b.display)
	img, err := screenshot.CaptureRect(b.bounds)
	if err != nil {
		return nil, fmt.Errorf("capture: grab display %d: %v", b.display, err)
	}
	return &Frame{
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
		Stride: img.Stride,
		Format: FormatRGBA,
		Data:   img.Pix,
	}, nil
}

func (b *screenBackend) Close() error {
	return nil
}
