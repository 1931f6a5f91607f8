package session

import (
	"context"
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/tcp"
	rtc "github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/webrtc"
	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v4"
)

// Client joins a room as a viewer, answers the host's offer, and
// forwards received frame payloads to the render side. A host that
// drops and rejoins within the relay's grace period simply sends a
// fresh offer, which replaces the old peer connection.
type Client struct {
	id   string
	room string
	conf config.Webrtc
	api  *rtc.ApiFactory
	sig  *signal
	log  *logger.Logger

	mu        sync.Mutex
	peer      *rtc.Peer
	hostId    string
	onPayload func(*encoder.Payload)
	connected chan struct{}
}

func NewClient(conf config.ClientConfig, log *logger.Logger) (*Client, error) {
	apiFactory, err := rtc.NewApiFactory(conf.Webrtc, log, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		id:        newPeerId(api.RoleClient),
		room:      conf.Client.Network.Room,
		conf:      conf.Webrtc,
		api:       apiFactory,
		log:       log,
		connected: make(chan struct{}, 1),
	}
	if c.sig, err = dial(conf.Client.Network.Signaling, log); err != nil {
		return nil, err
	}
	return c, nil
}

// Run joins the room and blocks until the media path is torn down.
// api.ErrNegotiationTimeout is returned when no peer connection could
// be established in time; retrying is up to the caller.
func (c *Client) Run(ctx context.Context, onPayload func(*encoder.Payload)) error {
	c.onPayload = onPayload
	c.sig.listen(c.handle)
	c.sig.send(api.Out{T: api.Join, Room: c.room, Role: api.RoleClient, From: c.id})

	guard := time.NewTimer(c.conf.NegotiationTimeout)
	defer guard.Stop()
	select {
	case <-c.connected:
	case <-guard.C:
		c.Shutdown()
		return api.ErrNegotiationTimeout
	case <-ctx.Done():
		c.Shutdown()
		return ctx.Err()
	case <-c.sig.done():
		return nil
	}

	select {
	case <-ctx.Done():
		c.Shutdown()
		return ctx.Err()
	case <-c.sig.done():
		return nil
	}
}

func (c *Client) handle(in api.In) {
	switch in.T {
	case api.Joined:
		c.log.Info().Msgf("joined room %v as %v", c.room, c.id)
	case api.Offer:
		c.acceptOffer(in)
	case api.Candidate:
		c.candidate(in)
	case api.HostLeft:
		c.log.Warn().Msg("host left, waiting for rejoin")
		c.dropPeer()
	case api.Error:
		if fail := api.Unwrap[api.ErrorReply](in.Payload); fail != nil {
			c.log.Warn().Msgf("relay: %v (%v)", fail.Message, fail.Code)
		}
	}
}

// acceptOffer replaces any previous peer connection with a new one
// answering the received SDP.
func (c *Client) acceptOffer(in api.In) {
	var sdp webrtc.SessionDescription
	if err := json.Unmarshal(in.Payload, &sdp); err != nil {
		c.log.Error().Err(err).Msg("bad offer")
		return
	}
	c.dropPeer()

	peer := rtc.New(c.log.Extend(c.log.With().Str("peer", in.From)), c.api)
	peer.OnMessage = c.receive
	peer.OnConnect = func() {
		c.log.Info().Msg("peer connected")
		select {
		case c.connected <- struct{}{}:
		default:
		}
	}
	answer, err := peer.AnswerCall(sdp, func(ice *webrtc.ICECandidateInit) {
		if ice != nil {
			c.sig.send(api.Out{T: api.Candidate, Room: c.room, From: c.id, To: in.From, Payload: ice})
		}
	})
	if err != nil {
		c.log.Error().Err(err).Msg("answer")
		peer.Disconnect()
		return
	}
	c.mu.Lock()
	c.peer, c.hostId = peer, in.From
	c.mu.Unlock()
	c.sig.send(api.Out{T: api.Answer, Room: c.room, From: c.id, To: in.From, Payload: answer})
}

func (c *Client) candidate(in api.In) {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return
	}
	var ice webrtc.ICECandidateInit
	if err := json.Unmarshal(in.Payload, &ice); err != nil {
		c.log.Error().Err(err).Msg("bad candidate")
		return
	}
	if err := peer.AddCandidate(ice); err != nil {
		c.log.Error().Err(err).Msg("candidate")
	}
}

// receive unpacks one data channel message into a frame payload.
func (c *Client) receive(data []byte) {
	p, err := tcp.DecodeFrame(data)
	if err != nil {
		monitoring.DecodeErrors.Inc()
		c.log.Debug().Err(err).Msg("bad frame message")
		return
	}
	if c.onPayload != nil {
		c.onPayload(p)
	}
}

func (c *Client) dropPeer() {
	c.mu.Lock()
	peer := c.peer
	c.peer, c.hostId = nil, ""
	c.mu.Unlock()
	if peer != nil {
		peer.Disconnect()
	}
}

func (c *Client) Shutdown() {
	c.dropPeer()
	c.sig.send(api.Out{T: api.Leave, Room: c.room, From: c.id})
	c.sig.close()
}
