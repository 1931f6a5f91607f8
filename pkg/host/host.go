// Package host wires the capture side of the system: screen source,
// JPEG codec, capture pipeline, and the transport picked by config.
package host

import (
	"context"
	"fmt"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/tcp"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/pipeline"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/service"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/session"
)

type App struct {
	conf config.HostConfig
	log  *logger.Logger

	cap      *pipeline.Capture
	caster   *tcp.Broadcaster
	peers    *session.Host
	services service.Group

	ctx    context.Context
	cancel context.CancelFunc
}

func New(conf config.HostConfig, log *logger.Logger) (*App, error) {
	app := &App{conf: conf, log: log}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	src, err := capture.NewScreen(conf.Host.Display, conf.Video.Scale)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	var sink pipeline.Sink
	switch conf.Host.Mode {
	case config.ModeTCP:
		if app.caster, err = tcp.NewBroadcaster(conf.Host.Network.Address, log); err != nil {
			return nil, err
		}
		sink = app.caster
		app.services.Add(app.caster)
	case config.ModeWebrtc:
		if app.peers, err = session.NewHost(conf, log); err != nil {
			return nil, err
		}
		sink = app.peers
	default:
		return nil, fmt.Errorf("unknown transport mode %q", conf.Host.Mode)
	}

	app.cap = pipeline.NewCapture(src, encoder.NewJPEG(), sink, conf.Video.Fps, conf.Video.Quality, log)
	if conf.Host.Monitoring.IsEnabled() {
		if m, err := monitoring.New(conf.Host.Monitoring, "host", log); err != nil {
			log.Error().Err(err).Msg("monitoring was not started")
		} else {
			app.services.Add(m)
		}
	}
	return app, nil
}

func (a *App) Run() {
	a.services.Start()
	if a.peers != nil {
		go func() { _ = a.peers.Run(a.ctx) }()
	}
	go a.cap.Run(a.ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.cancel()
	if a.peers != nil {
		a.peers.Shutdown()
	}
	return a.services.Shutdown(ctx)
}
