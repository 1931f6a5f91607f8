package session

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/signaling"
)

func TestPeerIdShape(t *testing.T) {
	for _, role := range []api.Role{api.RoleHost, api.RoleClient} {
		id := newPeerId(role)
		if !strings.HasPrefix(id, string(role)+"_") {
			t.Fatalf("bad prefix: %v", id)
		}
		if suffix := strings.TrimPrefix(id, string(role)+"_"); len(suffix) != 8 {
			t.Fatalf("expected 8 hex chars, got %v", id)
		}
		if id == newPeerId(role) {
			t.Fatalf("ids should not repeat: %v", id)
		}
	}
}

func relayURL(t *testing.T) string {
	t.Helper()
	hub := signaling.NewHub(config.Signaling{HostGracePeriod: time.Minute}, logger.Default())
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testWebrtc() config.Webrtc {
	// loopback host candidates only, no STUN round trips
	return config.Webrtc{NegotiationTimeout: 15 * time.Second}
}

func TestClientTimesOutWithoutHost(t *testing.T) {
	url := relayURL(t)

	conf := config.ClientConfig{Webrtc: testWebrtc()}
	conf.Webrtc.NegotiationTimeout = 150 * time.Millisecond
	conf.Client.Network.Signaling = url
	conf.Client.Network.Room = "idle"

	c, err := NewClient(conf, logger.Default())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	err = c.Run(context.Background(), func(*encoder.Payload) {})
	if err != api.ErrNegotiationTimeout {
		t.Fatalf("expected negotiation timeout, got %v", err)
	}
}

func TestHostClientFrameFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("full peer negotiation")
	}
	url := relayURL(t)

	hconf := config.HostConfig{Webrtc: testWebrtc()}
	hconf.Host.Network.Signaling = url
	hconf.Host.Network.Room = "flow"
	hconf.Video.Fps = 30

	host, err := NewHost(hconf, logger.Default())
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = host.Run(ctx) }()

	cconf := config.ClientConfig{Webrtc: testWebrtc()}
	cconf.Client.Network.Signaling = url
	cconf.Client.Network.Room = "flow"

	client, err := NewClient(cconf, logger.Default())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	got := make(chan *encoder.Payload, 1)
	go func() {
		_ = client.Run(ctx, func(p *encoder.Payload) {
			select {
			case got <- p:
			default:
			}
		})
	}()

	// feed frames until one makes it through the negotiated channel
	payload := &encoder.Payload{Data: []byte("jpeg-ish"), Seq: 7, W: 2, H: 2}
	deadline := time.After(15 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case p := <-got:
			if p.Seq != payload.Seq || string(p.Data) != string(payload.Data) {
				t.Fatalf("frame mangled in transit: %+v", p)
			}
			host.Shutdown()
			client.Shutdown()
			return
		case <-tick.C:
			host.Send(payload)
		case <-deadline:
			t.Fatalf("no frame delivered, peers: %d", host.Peers())
		}
	}
}
