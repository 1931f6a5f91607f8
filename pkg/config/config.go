package config

import (
	"time"

	flag "github.com/spf13/pflag"
)

// Transport mode of the media path.
const (
	ModeTCP    = "tcp"
	ModeWebrtc = "webrtc"
)

// DefaultRoom is used when no room id was given.
const DefaultRoom = "default"

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool `fig:"metricEnabled"`
	ProfilingEnabled bool `fig:"profilingEnabled"`
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

type Server struct {
	Address string
	Https   bool
	Tls     struct {
		Address   string
		Domain    string
		HttpsKey  string
		HttpsCert string
	}
}

func (s *Server) WithFlags() {
	flag.StringVar(&s.Address, "address", s.Address, "HTTP server address (host:port)")
	flag.StringVar(&s.Tls.Address, "httpsAddress", s.Tls.Address, "HTTPS server address (host:port)")
	flag.StringVar(&s.Tls.HttpsKey, "httpsKey", s.Tls.HttpsKey, "HTTPS key")
	flag.StringVar(&s.Tls.HttpsCert, "httpsCert", s.Tls.HttpsCert, "HTTPS chain")
}

func (s *Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}

// Video holds the still-image codec params of the TCP path.
type Video struct {
	// JPEG quality factor, 1..100
	Quality int `fig:"quality" default:"85"`
	Fps     int `fig:"fps" default:"30"`
	// downscale factor applied before encode, 1 keeps the source size
	Scale float64 `fig:"scale" default:"1"`
}

type Webrtc struct {
	DisableDefaultInterceptors bool
	IceServers                 []IceServer
	IcePorts                   struct {
		Min uint16
		Max uint16
	}
	IceIpMap string
	IceLite  bool
	LogLevel int
	// bound on a single offer/answer/ICE exchange
	NegotiationTimeout time.Duration `fig:"negotiationTimeout" default:"30s"`
}

type IceServer struct {
	Urls       string `json:"urls,omitempty"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

func (w *Webrtc) HasPortRange() bool { return w.IcePorts.Min > 0 && w.IcePorts.Max > 0 }
func (w *Webrtc) HasIceIpMap() bool  { return w.IceIpMap != "" }

func DefaultIceServers() []IceServer {
	return []IceServer{
		{Urls: "stun:stun.l.google.com:19302"},
		{Urls: "stun:stun1.l.google.com:19302"},
	}
}
