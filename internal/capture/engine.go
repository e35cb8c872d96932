package capture

import "errors"

// Backend is the platform grabber behind an Engine. Grab returns the next
// frame, or nil when the backend has nothing new this tick. Errors wrapping
// ErrSourceLost are permanent; anything else is treated as transient.
type Backend interface {
	Sources() ([]Source, error)
	Start(src *Source) error
	Grab() (*Frame, error)
	Close() error
}

// Engine owns one capture session and delivers frames to a callback. It
// does not retry and does not restart the session on errors.
type Engine struct {
	backend Backend
	cb      Callback
	started bool
}

// NewEngine builds an engine around the platform backend for opts.
func NewEngine(cb Callback, opts Options) (*Engine, error) {
	if cb == nil {
		return nil, errors.New("capture: nil callback")
	}
	b, err := newBackend(opts)
	if err != nil {
		return nil, err
	}
	return &Engine{backend: b, cb: cb}, nil
}

// Sources lists what the backend can capture. The list may be empty on
// platforms where the capture layer presents its own picker at start.
func (e *Engine) Sources() ([]Source, error) {
	return e.backend.Sources()
}

// Start begins the capture session. A nil source lets the backend pick its
// default, which is how platform-side pickers are driven.
func (e *Engine) Start(src *Source) error {
	if e.started {
		return ErrAlreadyStarted
	}
	if err := e.backend.Start(src); err != nil {
		return err
	}
	e.started = true
	return nil
}

// Tick requests one frame and invokes the callback zero or one times,
// synchronously, before returning. Ticking an unstarted engine is a no-op.
func (e *Engine) Tick() {
	if !e.started {
		return
	}
	frame, err := e.backend.Grab()
	if err != nil {
		if errors.Is(err, ErrSourceLost) {
			e.cb(ResultErrorPermanent, nil)
		} else {
			e.cb(ResultErrorTemporary, nil)
		}
		return
	}
	if frame == nil {
		return
	}
	e.cb(ResultSuccess, frame)
}

// Close stops the session and releases the backend.
func (e *Engine) Close() error {
	e.started = false
	return e.backend.Close()
}
