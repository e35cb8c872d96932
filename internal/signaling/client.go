package signaling

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler callbacks for incoming signaling messages. Nil callbacks are
// skipped.
type Handler struct {
	OnJoined     func(peers []PeerInfo)
	OnOffer      func(from string, payload json.RawMessage, track *TrackInfo)
	OnAnswer     func(from string, payload json.RawMessage)
	OnCandidate  func(from string, payload json.RawMessage)
	OnPeerJoined func(peer PeerInfo)
	OnPeerLeft   func(identity string)
	OnError      func(msg string)
}

// Client is a websocket signaling client scoped to one room.
type Client struct {
	url      string
	room     string
	identity string
	role     string
	token    string
	handler  Handler
	log      logrus.FieldLogger

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a client that will join room as identity. token may be
// empty when the server runs without verification.
func NewClient(url, room, identity, role, token string, handler Handler) *Client {
	return &Client{
		url:      url,
		room:     room,
		identity: identity,
		role:     role,
		token:    token,
		handler:  handler,
		log:      logrus.WithField("component", "signaling"),
		done:     make(chan struct{}),
	}
}

// Connect dials the server, joins the room, and starts the read and ping
// loops. Join confirmation arrives asynchronously via OnJoined.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("signaling dial: %w", err)
	}
	c.conn = conn

	err = c.send(Message{
		Type:     TypeJoin,
		Room:     c.room,
		Identity: c.identity,
		Role:     c.role,
		Token:    c.token,
	})
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("signaling join: %w", err)
	}

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Close shuts down the connection. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendOffer sends an SDP offer. An empty target broadcasts to the rest of
// the room. track describes the publication the offer carries.
func (c *Client) SendOffer(target string, payload json.RawMessage, track *TrackInfo) error {
	return c.send(Message{Type: TypeOffer, Target: target, Payload: payload, Track: track})
}

// SendAnswer sends an SDP answer to target.
func (c *Client) SendAnswer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeAnswer, Target: target, Payload: payload})
}

// SendCandidate sends an ICE candidate. An empty target broadcasts.
func (c *Client) SendCandidate(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeCandidate, Target: target, Payload: payload})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
				c.log.WithError(err).Debug("signaling read closed")
				return
			}
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeJoined:
		if c.handler.OnJoined != nil {
			c.handler.OnJoined(msg.Peers)
		}
	case TypeOffer:
		if c.handler.OnOffer != nil {
			c.handler.OnOffer(msg.From, msg.Payload, msg.Track)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.From, msg.Payload)
		}
	case TypeCandidate:
		if c.handler.OnCandidate != nil {
			c.handler.OnCandidate(msg.From, msg.Payload)
		}
	case TypePeerJoined:
		if c.handler.OnPeerJoined != nil {
			c.handler.OnPeerJoined(PeerInfo{Identity: msg.Identity, Role: msg.Role})
		}
	case TypePeerLeft:
		if c.handler.OnPeerLeft != nil {
			c.handler.OnPeerLeft(msg.Identity)
		}
	case TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
		// heartbeat response, nothing to do
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing})
		}
	}
}
