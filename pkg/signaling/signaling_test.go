package signaling

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type testPeer struct {
	t    *testing.T
	conn *websocket.Conn
}

func testHub(t *testing.T, grace time.Duration) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(config.Signaling{HostGracePeriod: grace}, logger.Default())
	srv := httptest.NewServer(http.HandlerFunc(hub.handleConnection))
	t.Cleanup(srv.Close)
	return hub, srv
}

func connect(t *testing.T, srv *httptest.Server) *testPeer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testPeer{t: t, conn: conn}
}

func (p *testPeer) send(out api.Out) {
	p.t.Helper()
	data, err := json.Marshal(out)
	if err != nil {
		p.t.Fatalf("marshal: %v", err)
	}
	if err = p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		p.t.Fatalf("write: %v", err)
	}
}

func (p *testPeer) recv() api.In {
	p.t.Helper()
	_ = p.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := p.conn.ReadMessage()
	if err != nil {
		p.t.Fatalf("read: %v", err)
	}
	var in api.In
	if err = json.Unmarshal(data, &in); err != nil {
		p.t.Fatalf("unmarshal: %v", err)
	}
	return in
}

func (p *testPeer) join(room string, role api.Role) string {
	p.t.Helper()
	p.send(api.Out{T: api.Join, Room: room, Role: role})
	reply := p.recv()
	if reply.T != api.Joined {
		p.t.Fatalf("expected Joined, got %v", reply.T)
	}
	joined := api.Unwrap[api.JoinedReply](reply.Payload)
	if joined == nil || joined.PeerId == "" {
		p.t.Fatalf("bad joined payload: %s", reply.Payload)
	}
	return joined.PeerId
}

func waitRooms(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.Rooms() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %v rooms, got %v", n, hub.Rooms())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSecondHostIsRejected(t *testing.T) {
	_, srv := testHub(t, time.Minute)

	host := connect(t, srv)
	host.join("a", api.RoleHost)

	intruder := connect(t, srv)
	intruder.send(api.Out{T: api.Join, Room: "a", Role: api.RoleHost})
	reply := intruder.recv()
	if reply.T != api.Error {
		t.Fatalf("expected Error, got %v", reply.T)
	}
	fail := api.Unwrap[api.ErrorReply](reply.Payload)
	if fail == nil || fail.Code != api.CodeRoomRoleConflict {
		t.Fatalf("expected %v, got %s", api.CodeRoomRoleConflict, reply.Payload)
	}

	// the same role in another room is fine
	intruder.send(api.Out{T: api.Join, Room: "b", Role: api.RoleHost})
	if reply = intruder.recv(); reply.T != api.Joined {
		t.Fatalf("expected Joined, got %v", reply.T)
	}
}

func TestOfferFansOutAnswerGoesToHost(t *testing.T) {
	_, srv := testHub(t, time.Minute)

	host := connect(t, srv)
	hostId := host.join("movie", api.RoleHost)

	client := connect(t, srv)
	clientId := client.join("movie", api.RoleClient)

	if ev := host.recv(); ev.T != api.PeerJoin {
		t.Fatalf("expected PeerJoin, got %v", ev.T)
	}

	host.send(api.Out{T: api.Offer, Payload: map[string]string{"sdp": "v=0 offer"}})
	offer := client.recv()
	if offer.T != api.Offer || offer.From != hostId {
		t.Fatalf("bad offer relay: %+v", offer)
	}
	if !strings.Contains(string(offer.Payload), "v=0 offer") {
		t.Fatalf("payload not forwarded verbatim: %s", offer.Payload)
	}

	client.send(api.Out{T: api.Answer, To: hostId, Payload: map[string]string{"sdp": "v=0 answer"}})
	answer := host.recv()
	if answer.T != api.Answer || answer.From != clientId {
		t.Fatalf("bad answer relay: %+v", answer)
	}
}

func TestRelayToGonePeer(t *testing.T) {
	_, srv := testHub(t, time.Minute)

	host := connect(t, srv)
	host.join("z", api.RoleHost)

	client := connect(t, srv)
	clientId := client.join("z", api.RoleClient)
	if ev := host.recv(); ev.T != api.PeerJoin {
		t.Fatalf("expected PeerJoin, got %v", ev.T)
	}

	client.send(api.Out{T: api.Leave})
	if ev := host.recv(); ev.T != api.PeerLeft {
		t.Fatalf("expected PeerLeft, got %v", ev.T)
	}

	host.send(api.Out{Id: "c-1", T: api.Candidate, To: clientId, Payload: map[string]string{"candidate": "udp 1"}})
	reply := host.recv()
	if reply.T != api.Error || reply.Id != "c-1" {
		t.Fatalf("expected Error for c-1, got %+v", reply)
	}
	fail := api.Unwrap[api.ErrorReply](reply.Payload)
	if fail == nil || fail.Code != api.CodeNoSuchPeer {
		t.Fatalf("expected %v, got %s", api.CodeNoSuchPeer, reply.Payload)
	}
}

func TestEmptyRoomIsDeleted(t *testing.T) {
	hub, srv := testHub(t, time.Minute)

	host := connect(t, srv)
	host.join("gone", api.RoleHost)
	waitRooms(t, hub, 1)

	host.send(api.Out{T: api.Leave})
	waitRooms(t, hub, 0)
}

func TestHostDropAndRejoinWithinGrace(t *testing.T) {
	hub, srv := testHub(t, time.Minute)

	host := connect(t, srv)
	host.join("d", api.RoleHost)

	client := connect(t, srv)
	client.join("d", api.RoleClient)
	if ev := host.recv(); ev.T != api.PeerJoin {
		t.Fatalf("expected PeerJoin, got %v", ev.T)
	}

	_ = host.conn.Close()
	if ev := client.recv(); ev.T != api.HostLeft {
		t.Fatalf("expected HostLeft, got %v", ev.T)
	}
	waitRooms(t, hub, 1)

	// the room is still there for a returning host
	back := connect(t, srv)
	back.join("d", api.RoleHost)
	if ev := back.recv(); ev.T != api.PeerJoin {
		t.Fatalf("expected PeerJoin replay, got %v", ev.T)
	}
}

func TestGraceExpiryDropsRoom(t *testing.T) {
	hub, srv := testHub(t, 50*time.Millisecond)

	host := connect(t, srv)
	host.join("brief", api.RoleHost)
	client := connect(t, srv)
	client.join("brief", api.RoleClient)
	if ev := host.recv(); ev.T != api.PeerJoin {
		t.Fatalf("expected PeerJoin, got %v", ev.T)
	}

	_ = host.conn.Close()
	if ev := client.recv(); ev.T != api.HostLeft {
		t.Fatalf("expected HostLeft, got %v", ev.T)
	}
	waitRooms(t, hub, 0)
}
