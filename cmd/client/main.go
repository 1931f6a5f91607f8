package main

import (
	"context"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/client"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/os"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/thread"
)

var Version = "?"

func run() {
	conf := config.NewClientConfig()
	conf.ParseFlags()

	log := logger.NewConsole(conf.Client.Debug, "c", false)
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	app, err := client.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("client init")
	}
	app.Run()
	select {
	case <-os.ExpectTermination():
	case <-app.Done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}

// SDL needs the main OS thread.
func main() { thread.Main(run) }
