// Package signaling implements the rendezvous relay that pairs one
// screen host with its viewers for WebRTC negotiation.
package signaling

import (
	"context"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/httpx"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/service"
)

type Signaling struct {
	hub      *Hub
	services service.Group
	log      *logger.Logger
}

func New(conf config.SignalingConfig, log *logger.Logger) (*Signaling, error) {
	hub := NewHub(conf.Signaling, log)
	srv, err := httpx.NewServer(
		conf.Signaling.Server.GetAddr(),
		func(s *httpx.Server) httpx.Handler {
			return s.Mux().HandleFunc("/ws", hub.handleConnection)
		},
		httpx.WithServerConfig(conf.Signaling.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	sig := &Signaling{hub: hub, log: log}
	sig.services.Add(srv)
	if conf.Signaling.Monitoring.IsEnabled() {
		if m, err := monitoring.New(conf.Signaling.Monitoring, "sig", log); err != nil {
			log.Error().Err(err).Msg("monitoring was not started")
		} else {
			sig.services.Add(m)
		}
	}
	return sig, nil
}

func (s *Signaling) Run()                               { s.services.Start() }
func (s *Signaling) Shutdown(ctx context.Context) error { return s.services.Shutdown(ctx) }
