package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pion/mediadevices"
	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/session"
	"github.com/roomcast/roomcast/internal/track"
)

// State of the pump loop.
type State int32

const (
	// StateCapturingUnpublished is the initial state: ticking, waiting
	// for the pipeline to produce its sink.
	StateCapturingUnpublished State = iota
	// StateCapturingPublished means the one-time publish succeeded and
	// the loop only ticks from here on.
	StateCapturingPublished
	// StateStopped is terminal, reached on cancellation or publish
	// failure.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCapturingUnpublished:
		return "capturing-unpublished"
	case StateCapturingPublished:
		return "capturing-published"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultInterval is the pump cadence, 16ms for roughly sixty ticks a
// second.
const DefaultInterval = 16 * time.Millisecond

// Capturer is the tick-driven frame producer.
type Capturer interface {
	Tick()
}

// Publisher performs the one-time track publication.
type Publisher interface {
	PublishTrack(t webrtc.TrackLocal, opts session.PublishOptions) error
}

var _ Publisher = (*session.Session)(nil)

// Config for the pump.
type Config struct {
	// Selector encodes the published track. It must be the same selector
	// the session registered with its media engine.
	Selector *mediadevices.CodecSelector
	// Publish options attached to the one-time publication.
	Publish session.PublishOptions
	// Interval between ticks; DefaultInterval when zero.
	Interval time.Duration
}

// Pump drives the capturer at a fixed cadence, watches for the sink
// handoff, and publishes the resulting track exactly once.
type Pump struct {
	capturer  Capturer
	ready     <-chan *track.Source
	publisher Publisher
	cfg       Config
	log       logrus.FieldLogger
	state     atomic.Int32
}

// NewPump wires a capturer, the pipeline's ready channel and a publisher
// together.
func NewPump(capturer Capturer, ready <-chan *track.Source, publisher Publisher, cfg Config) *Pump {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Pump{
		capturer:  capturer,
		ready:     ready,
		publisher: publisher,
		cfg:       cfg,
		log:       logrus.WithField("component", "pump"),
	}
}

// State reports the loop's current state.
func (p *Pump) State() State {
	return State(p.state.Load())
}

// Run ticks until ctx is cancelled. Cancellation is checked at the top of
// every iteration, so a context cancelled before the call performs zero
// ticks. A publish failure stops the loop and is returned; cancellation
// returns nil.
func (p *Pump) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.state.Store(int32(StateStopped))
			p.log.Info("pump stopped")
			return nil
		default:
		}

		p.capturer.Tick()

		// The handoff arrives at most once, but the state guard also
		// protects against a spurious second signal: once published,
		// the channel is never polled again.
		if p.State() == StateCapturingUnpublished {
			select {
			case sink := <-p.ready:
				if err := p.publish(sink); err != nil {
					p.state.Store(int32(StateStopped))
					return err
				}
				p.state.Store(int32(StateCapturingPublished))
			default:
			}
		}

		select {
		case <-ctx.Done():
			p.state.Store(int32(StateStopped))
			p.log.Info("pump stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Pump) publish(sink *track.Source) error {
	t := track.NewScreenShare(sink, p.cfg.Selector)
	p.log.WithFields(logrus.Fields{
		"track":      sink.ID(),
		"resolution": sink.Resolution().String(),
	}).Info("publishing track")
	return p.publisher.PublishTrack(t, p.cfg.Publish)
}
