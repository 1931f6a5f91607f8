package config

import flag "github.com/spf13/pflag"

type ClientConfig struct {
	Client  Client
	Webrtc  Webrtc
	Version Version
}

type Client struct {
	Debug      bool
	Mode       string `fig:"mode" default:"tcp"`
	Monitoring Monitoring
	Network    struct {
		// host media address of the TCP path
		Address   string `fig:"address" default:"localhost:9999"`
		Signaling string `fig:"signaling" default:"ws://localhost:8765/ws"`
		Room      string `fig:"room" default:"default"`
	}
	Window struct {
		Width      int  `fig:"width" default:"1280"`
		Height     int  `fig:"height" default:"720"`
		Fullscreen bool `fig:"fullscreen"`
	}
	// no video output, frames land in an in-memory framebuffer
	Headless bool `fig:"headless"`
	Tag      string
}

var clientConfigPath string

func NewClientConfig() (conf ClientConfig) {
	if err := LoadConfig(&conf, clientConfigPath); err != nil {
		panic(err)
	}
	conf.fixValues()
	return
}

func (c *ClientConfig) ParseFlags() {
	flag.StringVar(&c.Client.Mode, "mode", c.Client.Mode, "Transport mode (tcp, webrtc)")
	flag.StringVar(&c.Client.Network.Address, "address", c.Client.Network.Address, "Host media address")
	flag.StringVar(&c.Client.Network.Signaling, "signaling", c.Client.Network.Signaling, "Signaling relay URL")
	flag.StringVar(&c.Client.Network.Room, "room", c.Client.Network.Room, "Room id")
	flag.BoolVar(&c.Client.Headless, "headless", c.Client.Headless, "Run without video output")
	flag.IntVar(&c.Client.Monitoring.Port, "monitoring.port", c.Client.Monitoring.Port, "Monitoring server port")
	flag.StringVar(&clientConfigPath, "c-conf", clientConfigPath, "Set custom configuration file path")
	flag.Parse()
}

func (c *ClientConfig) fixValues() {
	if c.Client.Network.Room == "" {
		c.Client.Network.Room = DefaultRoom
	}
	if len(c.Webrtc.IceServers) == 0 {
		c.Webrtc.IceServers = DefaultIceServers()
	}
	if c.Webrtc.IceLite {
		c.Webrtc.IceServers = []IceServer{}
	}
}
