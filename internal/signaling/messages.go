package signaling

import "encoding/json"

// Message types for the signaling protocol.
const (
	TypeJoin       = "join"
	TypeJoined     = "joined"
	TypeOffer      = "offer"
	TypeAnswer     = "answer"
	TypeCandidate  = "candidate"
	TypePeerJoined = "peer-joined"
	TypePeerLeft   = "peer-left"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Roles a participant can take in a room.
const (
	RolePublisher  = "publisher"
	RoleSubscriber = "subscriber"
)

// Message is the envelope for all signaling traffic.
type Message struct {
	Type     string          `json:"type"`
	Room     string          `json:"room,omitempty"`
	Identity string          `json:"identity,omitempty"`
	Role     string          `json:"role,omitempty"`
	Token    string          `json:"token,omitempty"`
	From     string          `json:"from,omitempty"`
	Target   string          `json:"target,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Peers    []PeerInfo      `json:"peers,omitempty"`
	Track    *TrackInfo      `json:"track,omitempty"`
	Msg      string          `json:"message,omitempty"`
}

// PeerInfo describes a participant in a room.
type PeerInfo struct {
	Identity string `json:"identity"`
	Role     string `json:"role,omitempty"`
}

// TrackInfo rides on offers so receivers know what is being published
// before negotiation completes.
type TrackInfo struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
	Codec  string `json:"codec,omitempty"`
}
