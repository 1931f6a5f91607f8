package config

import (
	"time"

	flag "github.com/spf13/pflag"
)

type SignalingConfig struct {
	Signaling Signaling
	Version   Version
}

type Signaling struct {
	Debug      bool
	Monitoring Monitoring
	Origin     string
	Server     Server `fig:"server"`
	// how long a room with clients survives after its host drops
	HostGracePeriod time.Duration `fig:"hostGracePeriod" default:"30s"`
	Tag             string
}

var signalingConfigPath string

func NewSignalingConfig() (conf SignalingConfig) {
	if err := LoadConfig(&conf, signalingConfigPath); err != nil {
		panic(err)
	}
	if conf.Signaling.Server.Address == "" {
		conf.Signaling.Server.Address = ":8765"
	}
	return
}

func (c *SignalingConfig) ParseFlags() {
	c.Signaling.Server.WithFlags()
	flag.IntVar(&c.Signaling.Monitoring.Port, "monitoring.port", c.Signaling.Monitoring.Port, "Monitoring server port")
	flag.DurationVar(&c.Signaling.HostGracePeriod, "grace", c.Signaling.HostGracePeriod, "Host rejoin grace period")
	flag.StringVar(&signalingConfigPath, "s-conf", signalingConfigPath, "Set custom configuration file path")
	flag.Parse()
}
