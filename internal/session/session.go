// Package session connects to a room and publishes the outbound video
// track over a WebRTC peer connection negotiated through the signaling
// relay.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/mediadevices"
	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/signaling"
)

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

// DefaultNegotiationTimeout bounds how long Connect waits for the room join
// and PublishTrack waits for a remote answer.
const DefaultNegotiationTimeout = 15 * time.Second

var (
	// ErrNotConnected reports use of a session before Connect succeeded.
	ErrNotConnected = errors.New("session: not connected")
	// ErrAlreadyPublished reports a second publish on the same session.
	ErrAlreadyPublished = errors.New("session: track already published")
)

// PublishError reports a failed publish negotiation. The publisher does not
// retry; the supervising layer decides whether that is fatal.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Config configures a publisher session.
type Config struct {
	Room     string
	Identity string
	// Selector must be the codec selector the published track encodes
	// with, so the SDP offer advertises matching codecs. Nil falls back
	// to pion's default codec set.
	Selector *mediadevices.CodecSelector
	// NegotiationTimeout overrides DefaultNegotiationTimeout when > 0.
	NegotiationTimeout time.Duration
	ICEServers         []webrtc.ICEServer
}

// Session is one publisher connection to a room: a signaling client plus
// the peer connection carrying the published track.
type Session struct {
	cfg Config
	log logrus.FieldLogger
	sig *signaling.Client
	pc  *webrtc.PeerConnection

	mu         sync.Mutex
	published  bool
	remoteSet  bool
	pendingICE []webrtc.ICECandidateInit

	joinOnce sync.Once
	joined   chan struct{}
	answers  chan webrtc.SessionDescription
}

// Connect joins the room over signaling and prepares the peer connection.
// authToken may be empty when the relay runs without verification.
func Connect(url, authToken string, cfg Config) (*Session, error) {
	if cfg.Room == "" || cfg.Identity == "" {
		return nil, errors.New("session: room and identity required")
	}
	if cfg.NegotiationTimeout <= 0 {
		cfg.NegotiationTimeout = DefaultNegotiationTimeout
	}
	if cfg.ICEServers == nil {
		cfg.ICEServers = ICEServers
	}

	s := &Session{
		cfg:     cfg,
		log:     logrus.WithField("component", "session"),
		joined:  make(chan struct{}),
		answers: make(chan webrtc.SessionDescription, 1),
	}

	s.sig = signaling.NewClient(url, cfg.Room, cfg.Identity, signaling.RolePublisher, authToken, signaling.Handler{
		OnJoined: func(peers []signaling.PeerInfo) {
			s.log.WithField("peers", len(peers)).Info("joined room")
			s.joinOnce.Do(func() { close(s.joined) })
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			var answer webrtc.SessionDescription
			if err := json.Unmarshal(payload, &answer); err != nil {
				s.log.WithError(err).Warn("bad answer payload")
				return
			}
			select {
			case s.answers <- answer:
			default:
			}
		},
		OnCandidate: func(from string, payload json.RawMessage) {
			s.addRemoteCandidate(payload)
		},
		OnPeerJoined: func(peer signaling.PeerInfo) {
			s.log.WithField("identity", peer.Identity).Debug("peer joined")
		},
		OnError: func(msg string) {
			s.log.WithField("reason", msg).Error("signaling error")
		},
	})

	if err := s.sig.Connect(); err != nil {
		return nil, err
	}

	select {
	case <-s.joined:
	case <-time.After(cfg.NegotiationTimeout):
		s.sig.Close()
		return nil, fmt.Errorf("session: join %q timed out", cfg.Room)
	}

	mediaEngine := &webrtc.MediaEngine{}
	if cfg.Selector != nil {
		cfg.Selector.Populate(mediaEngine)
	} else if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		s.sig.Close()
		return nil, fmt.Errorf("session: register codecs: %w", err)
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine))

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: cfg.ICEServers})
	if err != nil {
		s.sig.Close()
		return nil, fmt.Errorf("session: peer connection: %w", err)
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.log.WithField("state", state.String()).Info("peer connection state")
	})
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			s.log.WithError(err).Warn("marshal ICE candidate")
			return
		}
		_ = s.sig.SendCandidate("", data)
	})
	s.pc = pc

	return s, nil
}

// PublishTrack attaches t as a sendonly transceiver, offers it to the room,
// and waits for the first answer. Called at most once per session.
func (s *Session) PublishTrack(t webrtc.TrackLocal, opts PublishOptions) error {
	if s.pc == nil {
		return ErrNotConnected
	}
	s.mu.Lock()
	if s.published {
		s.mu.Unlock()
		return ErrAlreadyPublished
	}
	s.mu.Unlock()

	_, err := s.pc.AddTransceiverFromTrack(t, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendonly,
	})
	if err != nil {
		return &PublishError{Op: "add transceiver", Err: err}
	}

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return &PublishError{Op: "create offer", Err: err}
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return &PublishError{Op: "set local description", Err: err}
	}
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return &PublishError{Op: "marshal offer", Err: err}
	}

	info := &signaling.TrackInfo{
		Name:   t.ID(),
		Source: string(opts.Source),
		Codec:  string(opts.VideoCodec),
	}
	if err := s.sig.SendOffer("", offerJSON, info); err != nil {
		return &PublishError{Op: "send offer", Err: err}
	}
	s.log.WithFields(logrus.Fields{
		"track": info.Name,
		"codec": info.Codec,
	}).Info("offer sent, waiting for answer")

	var answer webrtc.SessionDescription
	select {
	case answer = <-s.answers:
	case <-time.After(s.cfg.NegotiationTimeout):
		return &PublishError{Op: "await answer", Err: errors.New("timed out")}
	}

	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return &PublishError{Op: "set remote description", Err: err}
	}

	s.mu.Lock()
	s.remoteSet = true
	pending := s.pendingICE
	s.pendingICE = nil
	s.published = true
	s.mu.Unlock()

	for _, cand := range pending {
		if err := s.pc.AddICECandidate(cand); err != nil {
			s.log.WithError(err).Warn("add buffered ICE candidate")
		}
	}

	s.log.Info("track published")
	return nil
}

// addRemoteCandidate applies a candidate, buffering it when it arrives
// before the remote description is set.
func (s *Session) addRemoteCandidate(payload json.RawMessage) {
	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &cand); err != nil {
		s.log.WithError(err).Warn("bad ICE candidate payload")
		return
	}
	s.mu.Lock()
	if !s.remoteSet {
		s.pendingICE = append(s.pendingICE, cand)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if err := s.pc.AddICECandidate(cand); err != nil {
		s.log.WithError(err).Warn("add ICE candidate")
	}
}

// Close tears down the peer connection and leaves the room.
func (s *Session) Close() {
	if s.pc != nil {
		_ = s.pc.Close()
	}
	if s.sig != nil {
		s.sig.Close()
	}
}
