package signaling

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/roomcast/roomcast/internal/token"
)

// HubConfig configures the relay.
type HubConfig struct {
	// APISecret enables join-token verification when non-empty.
	APISecret string
	Log       logrus.FieldLogger
}

// Hub relays signaling between the participants of named rooms. It never
// inspects SDP; it only routes envelopes. Targeted messages go to one
// participant, untargeted ones to everyone else in the room.
type Hub struct {
	cfg      HubConfig
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[string]*member
}

type member struct {
	conn     *websocket.Conn
	identity string
	role     string

	mu sync.Mutex // serializes writes to conn
}

func (m *member) send(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn.WriteJSON(msg)
}

// NewHub creates an empty relay.
func NewHub(cfg HubConfig) *Hub {
	log := cfg.Log
	if log == nil {
		log = logrus.WithField("component", "hub")
	}
	return &Hub{
		cfg:   cfg,
		log:   log,
		rooms: make(map[string]map[string]*member),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stats reports the current room and participant counts.
func (h *Hub) Stats() (rooms, participants int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		participants += len(r)
	}
	return len(h.rooms), participants
}

// ServeHTTP upgrades the connection and serves it until it drops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.serve(conn)
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer conn.Close()

	var m *member
	var room string
	defer func() {
		if m != nil {
			h.leave(room, m)
		}
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case TypeJoin:
			if m != nil {
				_ = m.send(Message{Type: TypeError, Msg: "already joined"})
				continue
			}
			joined, err := h.join(conn, msg)
			if err != nil {
				// Not a member yet, so writing directly is safe.
				_ = conn.WriteJSON(Message{Type: TypeError, Msg: err.Error()})
				return
			}
			m = joined
			room = msg.Room

		case TypeOffer, TypeAnswer, TypeCandidate:
			if m == nil {
				_ = conn.WriteJSON(Message{Type: TypeError, Msg: "join a room first"})
				continue
			}
			msg.Room = room
			msg.From = m.identity
			h.relay(room, m.identity, msg)

		case TypePing:
			if m != nil {
				_ = m.send(Message{Type: TypePong})
			} else {
				_ = conn.WriteJSON(Message{Type: TypePong})
			}
		}
	}
}

func (h *Hub) join(conn *websocket.Conn, msg Message) (*member, error) {
	if msg.Room == "" || msg.Identity == "" {
		return nil, errors.New("room and identity required")
	}
	if h.cfg.APISecret != "" {
		claims, err := token.Verify(msg.Token, h.cfg.APISecret)
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		if claims.Identity() != msg.Identity {
			return nil, errors.New("token identity mismatch")
		}
		if !claims.Video.RoomJoin {
			return nil, errors.New("token does not grant room join")
		}
		if claims.Video.Room != "" && claims.Video.Room != msg.Room {
			return nil, errors.New("token does not grant this room")
		}
	}

	m := &member{conn: conn, identity: msg.Identity, role: msg.Role}

	h.mu.Lock()
	r := h.rooms[msg.Room]
	if r == nil {
		r = make(map[string]*member)
		h.rooms[msg.Room] = r
	}
	if _, taken := r[msg.Identity]; taken {
		h.mu.Unlock()
		return nil, fmt.Errorf("identity %q already in room", msg.Identity)
	}
	r[msg.Identity] = m
	peers := make([]PeerInfo, 0, len(r)-1)
	others := make([]*member, 0, len(r)-1)
	for id, other := range r {
		if id == msg.Identity {
			continue
		}
		peers = append(peers, PeerInfo{Identity: other.identity, Role: other.role})
		others = append(others, other)
	}
	h.mu.Unlock()

	if err := m.send(Message{Type: TypeJoined, Room: msg.Room, Identity: msg.Identity, Peers: peers}); err != nil {
		h.leave(msg.Room, m)
		return nil, err
	}
	for _, other := range others {
		_ = other.send(Message{Type: TypePeerJoined, Room: msg.Room, Identity: m.identity, Role: m.role})
	}

	h.log.WithFields(logrus.Fields{
		"room":     msg.Room,
		"identity": msg.Identity,
		"role":     msg.Role,
	}).Info("participant joined")
	return m, nil
}

func (h *Hub) leave(room string, m *member) {
	h.mu.Lock()
	r := h.rooms[room]
	if r == nil || r[m.identity] != m {
		h.mu.Unlock()
		return
	}
	delete(r, m.identity)
	if len(r) == 0 {
		delete(h.rooms, room)
	}
	others := make([]*member, 0, len(r))
	for _, o := range r {
		others = append(others, o)
	}
	h.mu.Unlock()

	for _, o := range others {
		_ = o.send(Message{Type: TypePeerLeft, Room: room, Identity: m.identity})
	}
	h.log.WithFields(logrus.Fields{"room": room, "identity": m.identity}).Info("participant left")
}

func (h *Hub) relay(room, from string, msg Message) {
	h.mu.Lock()
	r := h.rooms[room]
	var dst []*member
	if msg.Target != "" {
		if m, ok := r[msg.Target]; ok {
			dst = append(dst, m)
		}
	} else {
		for id, m := range r {
			if id != from {
				dst = append(dst, m)
			}
		}
	}
	h.mu.Unlock()

	for _, m := range dst {
		if err := m.send(msg); err != nil {
			h.log.WithError(err).WithField("identity", m.identity).Debug("relay write failed")
		}
	}
}
