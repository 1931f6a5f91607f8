package webrtc

import (
	"strings"
	"testing"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/config"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/pion/webrtc/v4"
)

// The offer must advertise exactly what the host can feed: the frames
// data channel and nothing else. A media section nobody writes to
// would leave viewers waiting on a permanently silent track.
func TestOfferIsDataChannelOnly(t *testing.T) {
	api, err := NewApiFactory(config.Webrtc{}, logger.Default(), nil)
	if err != nil {
		t.Fatalf("api factory: %v", err)
	}
	p := New(logger.Default(), api)
	defer p.Disconnect()

	offer, err := p.NewCall(func(*webrtc.ICECandidateInit) {})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if !strings.Contains(offer.SDP, "m=application") {
		t.Error("offer misses the data channel media section")
	}
	if strings.Contains(offer.SDP, "m=video") || strings.Contains(offer.SDP, "m=audio") {
		t.Errorf("offer advertises media nothing produces:\n%s", offer.SDP)
	}
}
