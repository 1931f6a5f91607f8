// Package api defines the signaling protocol shared by the relay, hosts, and clients.
//
// Each message is a JSON-encoded "packet" of the following structure:
//
//	  id - (optional) a unique packet id;
//	   t - (required) one of the predefined unique packet types;
//	room - (optional) addressed room;
//	role - (optional) sender role for join packets;
//	from - (optional) sender peer id;
//	  to - (optional) target peer id;
//	   p - (optional) packet payload with arbitrary data.
//
// SDP and ICE payloads are opaque to the relay: it interprets the envelope
// only and forwards the payload bytes verbatim.
//
// Example:
//
//	{"t":3,"room":"default","from":"host_1b9d6bcd","to":"client_6ec0bd7f","p":{"type":"offer","sdp":"..."}}
package api

import "github.com/goccy/go-json"

type PT uint8

const (
	Join      PT = 1
	Joined    PT = 2
	Offer     PT = 3
	Answer    PT = 4
	Candidate PT = 5
	Leave     PT = 6
	PeerJoin  PT = 7
	PeerLeft  PT = 8
	HostLeft  PT = 9
	Error     PT = 10
)

func (p PT) String() string {
	switch p {
	case Join:
		return "Join"
	case Joined:
		return "Joined"
	case Offer:
		return "Offer"
	case Answer:
		return "Answer"
	case Candidate:
		return "Candidate"
	case Leave:
		return "Leave"
	case PeerJoin:
		return "PeerJoin"
	case PeerLeft:
		return "PeerLeft"
	case HostLeft:
		return "HostLeft"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsRelay reports whether packets of this type are forwarded between peers
// as opposed to being handled by the relay itself.
func (p PT) IsRelay() bool { return p == Offer || p == Answer || p == Candidate }

type Role string

const (
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

func (r Role) Valid() bool { return r == RoleHost || r == RoleClient }

// In is a received packet; the payload stays raw for a 2-pass unmarshal.
type In struct {
	Id      string          `json:"id,omitempty"`
	T       PT              `json:"t"`
	Room    string          `json:"room,omitempty"`
	Role    Role            `json:"role,omitempty"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"p,omitempty"`
}

// Out is a packet to be sent.
type Out struct {
	Id      string `json:"id,omitempty"`
	T       PT     `json:"t"`
	Room    string `json:"room,omitempty"`
	Role    Role   `json:"role,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Payload any    `json:"p,omitempty"`
}

// Forward turns a received relay packet into its outgoing twin,
// payload bytes untouched.
func Forward(in In) Out {
	return Out{Id: in.Id, T: in.T, Room: in.Room, From: in.From, To: in.To,
		Payload: json.RawMessage(in.Payload)}
}

func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
