// Package pipeline bridges the synchronous capture callback with the
// asynchronous publish path. The capture engine hands raw packed frames to
// Pipeline.HandleFrame; the pump loop ticks the engine and completes the
// one-time publish once the pipeline has produced its sink.
package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/capture"
	"github.com/roomcast/roomcast/internal/track"
	"github.com/roomcast/roomcast/internal/video"
	"github.com/roomcast/roomcast/internal/yuv"
)

// Placeholder resolution held until the first captured frame reveals the
// real one. Arbitrary: the sink is only ever created from a measured
// resolution, never from this.
const (
	placeholderWidth  = 1920
	placeholderHeight = 1080
)

// Stats counts pipeline activity. Snapshot it after the pump has stopped;
// the counters are maintained on the capture path without synchronization.
type Stats struct {
	Frames            uint64
	TransientErrors   uint64
	PermanentErrors   uint64
	ResolutionChanges uint64
	ReadyDropped      uint64
}

// Pipeline holds the capture-callback state: the current known resolution,
// the single reusable planar frame, and the outbound sink once it exists.
// All of it is touched only from HandleFrame invocations, which the engine
// serializes within Tick.
type Pipeline struct {
	log   logrus.FieldLogger
	name  string
	res   video.Resolution
	frame *video.Frame
	sink  *track.Source
	ready chan *track.Source
	now   func() time.Time
	stats Stats
}

// New builds a pipeline whose sink, once created, carries name as its
// track ID.
func New(name string) *Pipeline {
	res := video.Resolution{Width: placeholderWidth, Height: placeholderHeight}
	return &Pipeline{
		log:   logrus.WithField("component", "pipeline"),
		name:  name,
		res:   res,
		frame: video.NewFrame(res.Width, res.Height),
		ready: make(chan *track.Source, 1),
		now:   time.Now,
	}
}

// Ready yields the sink exactly once, right after the first successful
// frame created it.
func (p *Pipeline) Ready() <-chan *track.Source {
	return p.ready
}

// Sink returns the outbound sink, or nil before the first successful frame.
func (p *Pipeline) Sink() *track.Source {
	return p.sink
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// HandleFrame is the capture callback. Error ticks are counted and skipped
// without touching any state. Successful frames are converted into the
// reusable planar frame and written to the sink; the first one instead
// creates the sink at the frame's true resolution and hands it to the pump
// without blocking. That first frame is not written, writing starts on the
// next tick.
func (p *Pipeline) HandleFrame(result capture.Result, raw *capture.Frame) {
	switch result {
	case capture.ResultErrorTemporary:
		p.stats.TransientErrors++
		p.log.Debug("transient capture error, skipping tick")
		return
	case capture.ResultErrorPermanent:
		p.stats.PermanentErrors++
		p.log.Debug("permanent capture error, skipping tick")
		return
	}

	if raw.Width != p.res.Width || raw.Height != p.res.Height {
		p.res = video.Resolution{Width: raw.Width, Height: raw.Height}
		p.frame.Resize(raw.Width, raw.Height)
		p.stats.ResolutionChanges++
		p.log.WithField("resolution", p.res.String()).Debug("capture resolution set")
	}

	switch raw.Format {
	case capture.FormatBGRA:
		yuv.BGRAToI420(raw.Data, raw.Stride,
			p.frame.Y, p.frame.StrideY,
			p.frame.U, p.frame.StrideU,
			p.frame.V, p.frame.StrideV,
			raw.Width, raw.Height)
	default:
		yuv.RGBAToI420(raw.Data, raw.Stride,
			p.frame.Y, p.frame.StrideY,
			p.frame.U, p.frame.StrideU,
			p.frame.V, p.frame.StrideV,
			raw.Width, raw.Height)
	}
	p.frame.Timestamp = p.now()
	p.stats.Frames++

	if p.sink != nil {
		p.sink.WriteFrame(p.frame)
		return
	}

	// First successful frame. The handoff must not block the capture
	// path: the send is attempted once and abandoned if refused, which a
	// capacity-one channel with a single emission never does.
	sink := track.NewSource(p.name, p.res)
	select {
	case p.ready <- sink:
	default:
		p.stats.ReadyDropped++
		p.log.Warn("sink ready signal dropped")
	}
	p.sink = sink
	p.log.WithField("resolution", p.res.String()).Info("video sink created")
}
