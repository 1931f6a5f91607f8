package signaling

import (
	"net/http"
	"sync"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/com"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/websocket"
	"github.com/goccy/go-json"
	ws "github.com/gorilla/websocket"
)

// Hub relays negotiation packets between the peers of each room.
// It interprets envelopes only; SDP and ICE payloads pass through
// as opaque blobs.
type Hub struct {
	conf     config.Signaling
	rooms    com.Map[string, *Room]
	joinMu   sync.Mutex
	upgrader *ws.Upgrader
	log      *logger.Logger
}

func NewHub(conf config.Signaling, log *logger.Logger) *Hub {
	return &Hub{
		conf:     conf,
		rooms:    com.NewMap[string, *Room](),
		upgrader: websocket.NewUpgrader(conf.Origin),
		log:      log,
	}
}

// Handler exposes the websocket endpoint of the relay.
func (h *Hub) Handler() http.HandlerFunc { return h.handleConnection }

// handleConnection serves one websocket peer for its whole lifetime.
func (h *Hub) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.NewServer(w, r, h.log, h.upgrader)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade")
		return
	}
	peer := newPeer(conn, h.log.Extend(h.log.With().Str("cid", conn.Id().Short())))
	conn.OnMessage = func(message []byte, err error) {
		if err != nil {
			return
		}
		h.handlePacket(peer, message)
	}
	conn.Listen()
	peer.log.Debug().Msg("connect")
	<-conn.Done
	h.leave(peer)
	peer.log.Debug().Msg("disconnect")
}

// handlePacket is invoked sequentially from the connection's reader
// pump, which gives per-sender FIFO relay ordering for free.
func (h *Hub) handlePacket(peer *Peer, message []byte) {
	var in api.In
	if err := json.Unmarshal(message, &in); err != nil {
		peer.log.Warn().Err(err).Msg("malformed packet")
		peer.SendError(in, api.ErrMalformed)
		return
	}
	peer.log.Debug().Str(logger.DirectionField, "←").Msgf("%v", in.T)
	switch {
	case in.T == api.Join:
		h.join(peer, in)
	case in.T == api.Leave:
		h.leave(peer)
	case in.T.IsRelay():
		h.relay(peer, in)
	default:
		peer.log.Warn().Msgf("unexpected packet %v", in.T)
	}
}

func (h *Hub) join(peer *Peer, in api.In) {
	role := in.Role
	if !role.Valid() {
		peer.SendError(in, api.ErrMalformed)
		return
	}
	roomId := in.Room
	if roomId == "" {
		roomId = config.DefaultRoom
	}
	// a re-join vacates the previous membership first
	if peer.room != nil {
		h.leave(peer)
	}
	peer.role = role
	peer.id = in.From
	if peer.id == "" {
		peer.id = string(role) + "_" + com.NewUid().String()
	}

	// find-or-create is guarded so two first joiners share one room
	h.joinMu.Lock()
	room, err := h.rooms.Find(roomId)
	if err != nil {
		room = newRoom(roomId)
		h.rooms.Put(roomId, room)
	}
	h.joinMu.Unlock()
	if err = room.addPeer(peer); err != nil {
		peer.SendError(in, err)
		return
	}
	h.log.Info().Msgf("%v %v joined room %v", peer.role, peer.id, roomId)
	peer.Send(api.Out{Id: in.Id, T: api.Joined, Room: roomId,
		Payload: api.JoinedReply{PeerId: peer.id, Room: roomId}})

	// the host drives offers, so it learns about every present client:
	// new arrivals right away, and survivors replayed on a host rejoin
	switch role {
	case api.RoleClient:
		if host := room.hostPeer(); host != nil {
			host.Send(api.Out{T: api.PeerJoin, Room: roomId, From: peer.id,
				Payload: api.PeerEvent{PeerId: peer.id}})
		}
	case api.RoleHost:
		for _, c := range room.clientPeers() {
			peer.Send(api.Out{T: api.PeerJoin, Room: roomId, From: c.id,
				Payload: api.PeerEvent{PeerId: c.id}})
		}
	}
}

func (h *Hub) relay(peer *Peer, in api.In) {
	room := peer.room
	if room == nil || (in.Room != "" && in.Room != room.id) {
		peer.SendError(in, api.ErrNoSuchRoom)
		return
	}
	targets, err := room.target(peer, in.To)
	if err != nil {
		peer.SendError(in, err)
		return
	}
	out := api.Forward(in)
	out.From = peer.id
	for _, t := range targets {
		t.Send(out)
	}
}

// leave removes the peer from its room. A departing host leaves the
// room host-less for the grace period instead of tearing it down, so
// it can rejoin under a fresh connection; the last participant of any
// kind deletes the room.
func (h *Hub) leave(peer *Peer) {
	room := peer.room
	if room == nil {
		return
	}
	peer.room = nil
	empty, hostless := room.removePeer(peer)
	switch {
	case empty:
		h.dropRoom(room)
	case hostless:
		for _, c := range room.clientPeers() {
			c.Send(api.Out{T: api.HostLeft, Room: room.id, From: peer.id})
		}
		room.startGrace(h.conf.HostGracePeriod, func() { h.expireRoom(room) })
		h.log.Info().Msgf("room %v is host-less, grace %v", room.id, h.conf.HostGracePeriod)
	case peer.role == api.RoleClient:
		if host := room.hostPeer(); host != nil {
			host.Send(api.Out{T: api.PeerLeft, Room: room.id, From: peer.id,
				Payload: api.PeerEvent{PeerId: peer.id}})
		}
	}
}

func (h *Hub) dropRoom(room *Room) {
	h.rooms.RemoveByKey(room.id)
	h.log.Info().Msgf("room %v deleted", room.id)
}

// expireRoom tears a room down after the host failed to rejoin in time.
func (h *Hub) expireRoom(room *Room) {
	if !room.expired() {
		return
	}
	for _, c := range room.clientPeers() {
		c.conn.Close()
	}
	h.dropRoom(room)
}

// Rooms reports the current number of rooms.
func (h *Hub) Rooms() int { return h.rooms.Len() }
