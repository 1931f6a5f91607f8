// Package client wires the viewing side: transport, render pipeline,
// and a display sink.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/display"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/tcp"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/pipeline"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/service"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/session"
)

type App struct {
	conf config.ClientConfig
	log  *logger.Logger

	render *pipeline.Render
	disp   display.Renderer
	sdl    *display.SDL

	tcpc     *tcp.Client
	peer     *session.Client
	services service.Group

	ctx    context.Context
	cancel context.CancelFunc

	// Done is closed when the stream or the user ends the session.
	Done chan struct{}
	once sync.Once
}

func New(conf config.ClientConfig, log *logger.Logger) (*App, error) {
	app := &App{conf: conf, log: log, Done: make(chan struct{})}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	win := conf.Client.Window
	if conf.Client.Headless {
		app.disp = display.NewSoft(win.Width, win.Height)
	} else {
		sdl, err := display.NewSDL("Remote Screen", win.Width, win.Height, win.Fullscreen, log)
		if err != nil {
			return nil, err
		}
		sdl.OnQuit = app.finish
		app.sdl, app.disp = sdl, sdl
	}
	app.render = pipeline.NewRender(encoder.NewJPEG(), app.disp, log)

	var err error
	switch conf.Client.Mode {
	case config.ModeTCP:
		app.tcpc, err = tcp.Dial(conf.Client.Network.Address, log)
	case config.ModeWebrtc:
		app.peer, err = session.NewClient(conf, log)
	default:
		err = fmt.Errorf("unknown transport mode %q", conf.Client.Mode)
	}
	if err != nil {
		_ = app.disp.Close()
		return nil, err
	}
	if conf.Client.Monitoring.IsEnabled() {
		if m, err := monitoring.New(conf.Client.Monitoring, "client", log); err != nil {
			log.Error().Err(err).Msg("monitoring was not started")
		} else {
			app.services.Add(m)
		}
	}
	return app, nil
}

func (a *App) Run() {
	a.services.Start()
	go a.render.Run(a.ctx)
	go a.stream()
	if a.sdl != nil {
		go a.ui()
	}
}

// stream feeds the render pipeline until the transport ends.
func (a *App) stream() {
	defer a.finish()
	var err error
	switch {
	case a.tcpc != nil:
		err = a.tcpc.Run(a.ctx, a.render.Submit)
	case a.peer != nil:
		err = a.peer.Run(a.ctx, a.render.Submit)
	}
	if err != nil && err != context.Canceled {
		a.log.Error().Err(err).Msg("stream ended")
	}
}

// ui pumps window events between frames.
func (a *App) ui() {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-t.C:
			a.sdl.Poll()
		}
	}
}

func (a *App) finish() { a.once.Do(func() { close(a.Done) }) }

func (a *App) Shutdown(ctx context.Context) error {
	a.cancel()
	if a.tcpc != nil {
		a.tcpc.Close()
	}
	if a.peer != nil {
		a.peer.Shutdown()
	}
	err := a.disp.Close()
	if serr := a.services.Shutdown(ctx); err == nil {
		err = serr
	}
	return err
}
