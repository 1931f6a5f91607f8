// Package webrtc wraps pion peer connections for the NAT-traversing
// media path: a "frames" data channel carrying the compressed
// still-image payloads.
package webrtc

import (
	"fmt"
	"sync"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/pion/webrtc/v4"
)

type Peer struct {
	api  *ApiFactory
	conn *webrtc.PeerConnection
	log  *logger.Logger

	// OnMessage receives inbound data channel payloads.
	OnMessage func(data []byte)
	OnConnect func()
	OnClose   func()

	d *webrtc.DataChannel

	closed sync.Once
}

func New(log *logger.Logger, api *ApiFactory) *Peer { return &Peer{api: api, log: log} }

// NewCall starts the offering side: the frames data channel.
// Returns the local offer after it is set.
func (p *Peer) NewCall(onICECandidate func(*webrtc.ICECandidateInit)) (*webrtc.SessionDescription, error) {
	if p.conn != nil && p.conn.ConnectionState() == webrtc.PeerConnectionStateConnected {
		return nil, fmt.Errorf("already connected")
	}
	p.log.Debug().Msg("WebRTC start")
	var err error
	if p.conn, err = p.api.NewPeer(); err != nil {
		return nil, err
	}
	p.conn.OnICECandidate(p.handleICECandidate(onICECandidate))

	d, err := p.conn.CreateDataChannel("frames", nil)
	if err != nil {
		return nil, err
	}
	p.hookDataChannel(d)
	p.log.Debug().Msg("Added [frames] chan")

	p.conn.OnICEConnectionStateChange(p.handleICEState())

	offer, err := p.conn.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Msg("Created Offer")
	if err = p.conn.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// AnswerCall starts the answering side: apply the remote offer and
// produce an answer. Inbound data channel payloads flow to OnMessage.
func (p *Peer) AnswerCall(offer webrtc.SessionDescription, onICECandidate func(*webrtc.ICECandidateInit)) (*webrtc.SessionDescription, error) {
	var err error
	if p.conn, err = p.api.NewPeer(); err != nil {
		return nil, err
	}
	p.conn.OnICECandidate(p.handleICECandidate(onICECandidate))
	p.conn.OnDataChannel(func(d *webrtc.DataChannel) {
		p.log.Debug().Msgf("Got [%s] chan", d.Label())
		p.hookDataChannel(d)
	})
	p.conn.OnICEConnectionStateChange(p.handleICEState())

	if err = p.conn.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := p.conn.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Msg("Created Answer")
	if err = p.conn.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (p *Peer) hookDataChannel(d *webrtc.DataChannel) {
	p.d = d
	d.OnOpen(func() { p.log.Debug().Msgf("[%s] chan is open", d.Label()) })
	d.OnMessage(func(m webrtc.DataChannelMessage) {
		if p.OnMessage != nil {
			p.OnMessage(m.Data)
		}
	})
	d.OnClose(func() { p.log.Debug().Msgf("[%s] chan was closed", d.Label()) })
}

// SendFrame pushes one compressed frame payload onto the data channel.
func (p *Peer) SendFrame(data []byte) error {
	if p.d == nil {
		return fmt.Errorf("no data channel")
	}
	return p.d.Send(data)
}

func (p *Peer) SetRemoteSDP(sdp webrtc.SessionDescription) error {
	if err := p.conn.SetRemoteDescription(sdp); err != nil {
		p.log.Error().Err(err).Msg("Set remote description from peer failed")
		return err
	}
	p.log.Debug().Msg("Set Remote Description")
	return nil
}

func (p *Peer) AddCandidate(candidate webrtc.ICECandidateInit) error {
	if err := p.conn.AddICECandidate(candidate); err != nil {
		return err
	}
	p.log.Debug().Str("candidate", candidate.Candidate).Msg("ICE")
	return nil
}

func (p *Peer) handleICECandidate(callback func(*webrtc.ICECandidateInit)) func(*webrtc.ICECandidate) {
	return func(ice *webrtc.ICECandidate) {
		// nil marks the end of gathering
		if ice == nil {
			callback(nil)
			return
		}
		candidate := ice.ToJSON()
		p.log.Debug().Str("candidate", candidate.Candidate).Msg("ICE")
		callback(&candidate)
	}
}

func (p *Peer) handleICEState() func(webrtc.ICEConnectionState) {
	return func(state webrtc.ICEConnectionState) {
		p.log.Debug().Str(".state", state.String()).Msg("ICE")
		switch state {
		case webrtc.ICEConnectionStateConnected:
			if p.OnConnect != nil {
				p.OnConnect()
			}
		case webrtc.ICEConnectionStateFailed:
			p.log.Error().Msgf("WebRTC connection fail! connection: %v, ice: %v, gathering: %v, signalling: %v",
				p.conn.ConnectionState(), p.conn.ICEConnectionState(), p.conn.ICEGatheringState(),
				p.conn.SignalingState())
			p.Disconnect()
		case webrtc.ICEConnectionStateClosed,
			webrtc.ICEConnectionStateDisconnected:
			p.Disconnect()
		}
	}
}

func (p *Peer) Disconnect() {
	p.closed.Do(func() {
		if p.conn != nil {
			if err := p.conn.Close(); err != nil {
				p.log.Error().Err(err).Msg("webrtc close")
			}
		}
		if p.OnClose != nil {
			p.OnClose()
		}
		p.log.Debug().Msg("WebRTC stop")
	})
}
