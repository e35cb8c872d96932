package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grabResult struct {
	frame *Frame
	err   error
}

type fakeBackend struct {
	sources []Source
	grabs   []grabResult
	next    int
	started *Source
	starts  int
	closed  bool
}

func (f *fakeBackend) Sources() ([]Source, error) { return f.sources, nil }

func (f *fakeBackend) Start(src *Source) error {
	f.started = src
	f.starts++
	return nil
}

func (f *fakeBackend) Grab() (*Frame, error) {
	if f.next >= len(f.grabs) {
		return nil, nil
	}
	g := f.grabs[f.next]
	f.next++
	return g.frame, g.err
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

type recorded struct {
	result Result
	frame  *Frame
}

func recordingCallback(got *[]recorded) Callback {
	return func(result Result, frame *Frame) {
		*got = append(*got, recorded{result, frame})
	}
}

func TestNewEngineRequiresCallback(t *testing.T) {
	_, err := NewEngine(nil, Options{})
	assert.Error(t, err)
}

func TestNewEngineRejectsWindowKind(t *testing.T) {
	_, err := NewEngine(func(Result, *Frame) {}, Options{Kind: SourceWindow})
	assert.ErrorIs(t, err, ErrWindowCaptureUnsupported)
}

func TestTickDeliversFrame(t *testing.T) {
	frame := &Frame{Width: 640, Height: 480, Stride: 640 * 4, Format: FormatRGBA, Data: make([]byte, 640*480*4)}
	backend := &fakeBackend{grabs: []grabResult{{frame: frame}}}
	var got []recorded
	e := &Engine{backend: backend, cb: recordingCallback(&got)}

	require.NoError(t, e.Start(nil))
	e.Tick()

	require.Len(t, got, 1)
	assert.Equal(t, ResultSuccess, got[0].result)
	assert.Same(t, frame, got[0].frame)
}

func TestTickClassifiesErrors(t *testing.T) {
	backend := &fakeBackend{grabs: []grabResult{
		{err: errors.New("blink")},
		{err: fmt.Errorf("display 1: %w", ErrSourceLost)},
	}}
	var got []recorded
	e := &Engine{backend: backend, cb: recordingCallback(&got)}
	require.NoError(t, e.Start(nil))

	e.Tick()
	e.Tick()

	require.Len(t, got, 2)
	assert.Equal(t, ResultErrorTemporary, got[0].result)
	assert.Nil(t, got[0].frame)
	assert.Equal(t, ResultErrorPermanent, got[1].result)
	assert.Nil(t, got[1].frame)
}

func TestTickWithoutFrameInvokesNothing(t *testing.T) {
	backend := &fakeBackend{}
	var got []recorded
	e := &Engine{backend: backend, cb: recordingCallback(&got)}
	require.NoError(t, e.Start(nil))

	e.Tick()

	assert.Empty(t, got)
}

func TestTickBeforeStartIsNoop(t *testing.T) {
	backend := &fakeBackend{grabs: []grabResult{{frame: &Frame{}}}}
	var got []recorded
	e := &Engine{backend: backend, cb: recordingCallback(&got)}

	e.Tick()

	assert.Empty(t, got)
	assert.Zero(t, backend.next)
}

func TestStartTwice(t *testing.T) {
	e := &Engine{backend: &fakeBackend{}, cb: func(Result, *Frame) {}}
	require.NoError(t, e.Start(nil))
	assert.ErrorIs(t, e.Start(nil), ErrAlreadyStarted)
}

func TestStartPassesSelection(t *testing.T) {
	backend := &fakeBackend{}
	e := &Engine{backend: backend, cb: func(Result, *Frame) {}}
	src := &Source{ID: "1", Title: "Display 1", Kind: SourceScreen}

	require.NoError(t, e.Start(src))

	assert.Same(t, src, backend.started)
	assert.Equal(t, 1, backend.starts)
}

func TestCloseReleasesBackend(t *testing.T) {
	backend := &fakeBackend{}
	e := &Engine{backend: backend, cb: func(Result, *Frame) {}}
	require.NoError(t, e.Start(nil))

	require.NoError(t, e.Close())

	assert.True(t, backend.closed)
	e.Tick()
	assert.Zero(t, backend.next)
}
