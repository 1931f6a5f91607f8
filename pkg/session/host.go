package session

import (
	"context"
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/com"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/tcp"
	rtc "github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/webrtc"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/pipeline"
	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v4"
)

// Host joins a room as its single screen source and negotiates one
// peer connection per client. It is a frame sink: Send fans the
// payload out to every established peer, never blocking the producer.
type Host struct {
	id    string
	room  string
	conf  config.Webrtc
	api   *rtc.ApiFactory
	sig   *signal
	peers com.Map[string, *hostPeer]
	log   *logger.Logger
}

// hostPeer is the per-client write path: its own latch, its own
// pump, so one stalled client never backpressures the others.
type hostPeer struct {
	id    string
	peer  *rtc.Peer
	latch *pipeline.Latch[*encoder.Payload]
	stop  chan struct{}
	once  sync.Once
	guard *time.Timer
}

func (p *hostPeer) disconnect() {
	p.once.Do(func() {
		if p.guard != nil {
			p.guard.Stop()
		}
		close(p.stop)
		p.peer.Disconnect()
	})
}

func NewHost(conf config.HostConfig, log *logger.Logger) (*Host, error) {
	apiFactory, err := rtc.NewApiFactory(conf.Webrtc, log, nil)
	if err != nil {
		return nil, err
	}
	h := &Host{
		id:    newPeerId(api.RoleHost),
		room:  conf.Host.Network.Room,
		conf:  conf.Webrtc,
		api:   apiFactory,
		peers: com.NewMap[string, *hostPeer](),
		log:   log,
	}
	if h.sig, err = dial(conf.Host.Network.Signaling, log); err != nil {
		return nil, err
	}
	return h, nil
}

// Run joins the room and serves negotiation until the context or the
// relay connection ends.
func (h *Host) Run(ctx context.Context) error {
	h.sig.listen(h.handle)
	h.sig.send(api.Out{T: api.Join, Room: h.room, Role: api.RoleHost, From: h.id})
	select {
	case <-ctx.Done():
	case <-h.sig.done():
	}
	h.Shutdown()
	return ctx.Err()
}

func (h *Host) handle(in api.In) {
	switch in.T {
	case api.Joined:
		h.log.Info().Msgf("joined room %v as %v", h.room, h.id)
	case api.PeerJoin:
		if ev := api.Unwrap[api.PeerEvent](in.Payload); ev != nil {
			h.offer(ev.PeerId)
		}
	case api.Answer:
		h.answer(in)
	case api.Candidate:
		h.candidate(in)
	case api.PeerLeft:
		if ev := api.Unwrap[api.PeerEvent](in.Payload); ev != nil {
			h.drop(ev.PeerId)
		}
	case api.Error:
		if fail := api.Unwrap[api.ErrorReply](in.Payload); fail != nil {
			h.log.Warn().Msgf("relay: %v (%v)", fail.Message, fail.Code)
		}
	}
}

// offer opens a fresh peer connection towards one client and pushes
// the local SDP through the relay.
func (h *Host) offer(clientId string) {
	if h.peers.Has(clientId) {
		h.drop(clientId)
	}
	log := h.log.Extend(h.log.With().Str("peer", clientId))
	hp := &hostPeer{
		id:    clientId,
		peer:  rtc.New(log, h.api),
		latch: pipeline.NewLatch[*encoder.Payload](),
		stop:  make(chan struct{}),
	}
	hp.peer.OnConnect = func() {
		if hp.guard != nil {
			hp.guard.Stop()
		}
		log.Info().Msg("peer connected")
		go h.pump(hp)
	}
	hp.peer.OnClose = func() { h.drop(clientId) }

	sdp, err := hp.peer.NewCall(func(ice *webrtc.ICECandidateInit) {
		if ice != nil {
			h.sig.send(api.Out{T: api.Candidate, Room: h.room, From: h.id, To: clientId, Payload: ice})
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("offer")
		hp.disconnect()
		return
	}
	hp.guard = time.AfterFunc(h.conf.NegotiationTimeout, func() {
		log.Error().Err(api.ErrNegotiationTimeout).Send()
		h.drop(clientId)
	})
	h.peers.Put(clientId, hp)
	h.sig.send(api.Out{T: api.Offer, Room: h.room, From: h.id, To: clientId, Payload: sdp})
}

func (h *Host) answer(in api.In) {
	hp, err := h.peers.Find(in.From)
	if err != nil {
		h.log.Warn().Msgf("answer from unknown peer %v", in.From)
		return
	}
	var sdp webrtc.SessionDescription
	if err = json.Unmarshal(in.Payload, &sdp); err != nil {
		h.log.Error().Err(err).Msg("bad answer")
		return
	}
	if err = hp.peer.SetRemoteSDP(sdp); err != nil {
		h.drop(in.From)
	}
}

func (h *Host) candidate(in api.In) {
	hp, err := h.peers.Find(in.From)
	if err != nil {
		return
	}
	var ice webrtc.ICECandidateInit
	if err = json.Unmarshal(in.Payload, &ice); err != nil {
		h.log.Error().Err(err).Msg("bad candidate")
		return
	}
	if err = hp.peer.AddCandidate(ice); err != nil {
		h.log.Error().Err(err).Msg("candidate")
	}
}

// pump moves frames from the client's latch onto its data channel,
// always the freshest one.
func (h *Host) pump(hp *hostPeer) {
	for {
		p, ok := hp.latch.Take(hp.stop)
		if !ok {
			return
		}
		data, err := tcp.EncodeFrame(p)
		if err != nil {
			h.log.Error().Err(err).Msg("frame encode")
			continue
		}
		if err = hp.peer.SendFrame(data); err != nil {
			h.log.Debug().Err(err).Msgf("peer %v send", hp.id)
			h.drop(hp.id)
			return
		}
	}
}

// Send implements the capture sink: overwrite each client's slot with
// the latest payload and move on.
func (h *Host) Send(p *encoder.Payload) {
	for _, hp := range h.peers.Snapshot() {
		if hp.latch.Set(p) {
			monitoring.FramesDropped.Inc()
		}
	}
}

func (h *Host) drop(clientId string) {
	if hp, err := h.peers.Find(clientId); err == nil {
		h.peers.RemoveByKey(clientId)
		hp.disconnect()
		h.log.Info().Msgf("peer %v gone", clientId)
	}
}

// Peers reports the number of negotiated or negotiating clients.
func (h *Host) Peers() int { return h.peers.Len() }

func (h *Host) Shutdown() {
	for _, hp := range h.peers.Snapshot() {
		h.drop(hp.id)
	}
	h.sig.send(api.Out{T: api.Leave, Room: h.room, From: h.id})
	h.sig.close()
}
