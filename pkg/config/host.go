package config

import flag "github.com/spf13/pflag"

type HostConfig struct {
	Host    Host
	Video   Video
	Webrtc  Webrtc
	Version Version
}

type Host struct {
	Debug      bool
	Mode       string `fig:"mode" default:"tcp"`
	Monitoring Monitoring
	Network    struct {
		// media listen address of the TCP path
		Address string `fig:"address" default:":9999"`
		// signaling relay url of the WebRTC path
		Signaling string `fig:"signaling" default:"ws://localhost:8765/ws"`
		Room      string `fig:"room" default:"default"`
	}
	Display int `fig:"display" default:"0"`
	Tag     string
}

type Version int

// allows custom config path
var hostConfigPath string

func NewHostConfig() (conf HostConfig) {
	if err := LoadConfig(&conf, hostConfigPath); err != nil {
		panic(err)
	}
	conf.fixValues()
	return
}

// ParseFlags updates config values from passed runtime flags.
// Define own flags with default value set to the current config param.
func (c *HostConfig) ParseFlags() {
	flag.StringVar(&c.Host.Mode, "mode", c.Host.Mode, "Transport mode (tcp, webrtc)")
	flag.StringVar(&c.Host.Network.Address, "address", c.Host.Network.Address, "TCP media listen address")
	flag.StringVar(&c.Host.Network.Signaling, "signaling", c.Host.Network.Signaling, "Signaling relay URL")
	flag.StringVar(&c.Host.Network.Room, "room", c.Host.Network.Room, "Room id")
	flag.IntVar(&c.Video.Quality, "quality", c.Video.Quality, "JPEG quality (1-100)")
	flag.IntVar(&c.Video.Fps, "fps", c.Video.Fps, "Capture rate")
	flag.IntVar(&c.Host.Monitoring.Port, "monitoring.port", c.Host.Monitoring.Port, "Monitoring server port")
	flag.StringVar(&hostConfigPath, "h-conf", hostConfigPath, "Set custom configuration file path")
	flag.Parse()
}

// fixValues tries to fix some values otherwise hard to set externally.
func (c *HostConfig) fixValues() {
	if c.Host.Network.Room == "" {
		c.Host.Network.Room = DefaultRoom
	}
	if len(c.Webrtc.IceServers) == 0 {
		c.Webrtc.IceServers = DefaultIceServers()
	}
	// with ICE lite we clear ICE servers
	if c.Webrtc.IceLite {
		c.Webrtc.IceServers = []IceServer{}
	}
}
