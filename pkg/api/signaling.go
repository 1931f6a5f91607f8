package api

import "errors"

// Signaling failure classes. Each is reported to the originating
// connection and is never fatal to the relay process.
var (
	ErrRoomRoleConflict   = errors.New("room already has a host")
	ErrNoSuchRoom         = errors.New("no such room")
	ErrNoSuchPeer         = errors.New("no such peer")
	ErrNegotiationTimeout = errors.New("negotiation timed out")
	ErrMalformed          = errors.New("malformed packet")
)

// Error payload codes.
const (
	CodeRoomRoleConflict = "room_role_conflict"
	CodeNoSuchRoom       = "no_such_room"
	CodeNoSuchPeer       = "no_such_peer"
	CodeMalformed        = "malformed"
)

type (
	JoinedReply struct {
		PeerId string `json:"peer_id"`
		Room   string `json:"room"`
	}
	PeerEvent struct {
		PeerId string `json:"peer_id"`
	}
	ErrorReply struct {
		Code    string `json:"code"`
		Message string `json:"message,omitempty"`
	}
)

// ErrorCode maps a signaling error onto its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomRoleConflict):
		return CodeRoomRoleConflict
	case errors.Is(err, ErrNoSuchRoom):
		return CodeNoSuchRoom
	case errors.Is(err, ErrNoSuchPeer):
		return CodeNoSuchPeer
	default:
		return CodeMalformed
	}
}

// CodeError is the reverse of ErrorCode for client-side reporting.
func CodeError(code string) error {
	switch code {
	case CodeRoomRoleConflict:
		return ErrRoomRoleConflict
	case CodeNoSuchRoom:
		return ErrNoSuchRoom
	case CodeNoSuchPeer:
		return ErrNoSuchPeer
	default:
		return ErrMalformed
	}
}
