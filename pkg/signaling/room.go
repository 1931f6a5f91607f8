package signaling

import (
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
)

// Room groups exactly one host with 0..N clients. Each room carries its
// own lock, so independent rooms are processed fully in parallel and
// only same-room operations serialize.
type Room struct {
	id string

	mu      sync.Mutex
	host    *Peer
	clients map[string]*Peer
	grace   *time.Timer
}

func newRoom(id string) *Room {
	return &Room{id: id, clients: make(map[string]*Peer, 2)}
}

// addPeer registers the peer under its role.
// A second host yields api.ErrRoomRoleConflict.
func (r *Room) addPeer(p *Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.role == api.RoleHost {
		if r.host != nil {
			return api.ErrRoomRoleConflict
		}
		r.host = p
		// host rejoined within the grace window
		if r.grace != nil {
			r.grace.Stop()
			r.grace = nil
		}
	} else {
		r.clients[p.id] = p
	}
	p.room = r
	return nil
}

// removePeer unregisters the peer and reports whether the room became
// empty and whether a departed host left clients behind.
func (r *Room) removePeer(p *Peer) (empty, hostless bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.host == p {
		r.host = nil
		hostless = len(r.clients) > 0
	} else {
		delete(r.clients, p.id)
	}
	empty = r.host == nil && len(r.clients) == 0
	return empty, hostless
}

// target resolves the destination peers of a relay packet: an explicit
// peer id wins, otherwise the complement role of the sender.
func (r *Room) target(from *Peer, to string) ([]*Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to != "" {
		if r.host != nil && r.host.id == to {
			return []*Peer{r.host}, nil
		}
		if c, ok := r.clients[to]; ok {
			return []*Peer{c}, nil
		}
		return nil, api.ErrNoSuchPeer
	}
	if from.role == api.RoleClient {
		if r.host == nil {
			return nil, api.ErrNoSuchPeer
		}
		return []*Peer{r.host}, nil
	}
	if len(r.clients) == 0 {
		return nil, api.ErrNoSuchPeer
	}
	out := make([]*Peer, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out, nil
}

func (r *Room) hostPeer() *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

func (r *Room) clientPeers() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Peer, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// startGrace arms the host-rejoin countdown; onExpire runs unless a new
// host shows up first.
func (r *Room) startGrace(d time.Duration, onExpire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grace != nil {
		r.grace.Stop()
	}
	r.grace = time.AfterFunc(d, onExpire)
}

// expired reports whether the room is still hostless when the grace
// timer fires.
func (r *Room) expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.host != nil {
		return false
	}
	r.grace = nil
	return true
}
