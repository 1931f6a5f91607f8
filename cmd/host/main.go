package main

import (
	"context"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/host"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/os"
)

var Version = "?"

func main() {
	conf := config.NewHostConfig()
	conf.ParseFlags()

	log := logger.NewConsole(conf.Host.Debug, "h", false)
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	app, err := host.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("host init")
	}
	app.Run()
	<-os.ExpectTermination()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}
