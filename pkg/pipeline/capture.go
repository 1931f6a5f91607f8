package pipeline

import (
	"context"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
)

// Sink accepts finished payloads. Implementations must not block the
// capture cadence: a busy peer keeps its own latch and drops stale
// payloads there.
type Sink interface {
	Send(p *encoder.Payload)
}

// Capture runs the capture-encode-send loop on a fixed target cadence.
type Capture struct {
	src     capture.Source
	codec   encoder.Codec
	sink    Sink
	quality int
	period  time.Duration
	log     *logger.Logger
}

func NewCapture(src capture.Source, codec encoder.Codec, sink Sink, fps, quality int, log *logger.Logger) *Capture {
	if fps <= 0 {
		fps = 30
	}
	return &Capture{
		src:     src,
		codec:   codec,
		sink:    sink,
		quality: quality,
		period:  time.Second / time.Duration(fps),
		log:     log,
	}
}

// Run blocks until ctx is done. Each cycle captures one frame, encodes
// it and hands it to the sink. Capture or encode failures are logged
// and the cycle is skipped. The next cycle is scheduled relative to
// wall-clock now, so a slow cycle never accumulates catch-up ticks.
func (c *Capture) Run(ctx context.Context) {
	timer := time.NewTimer(c.period)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		c.cycle()
		timer.Reset(c.period)
	}
}

func (c *Capture) cycle() {
	frame, err := c.src.CaptureOnce()
	if err != nil {
		monitoring.CaptureErrors.Inc()
		c.log.Warn().Err(err).Msg("capture skipped")
		return
	}
	monitoring.FramesCaptured.Inc()
	p, err := c.codec.Encode(frame, c.quality)
	if err != nil {
		monitoring.EncodeErrors.Inc()
		c.log.Warn().Err(err).Uint64("seq", frame.Seq).Msg("encode skipped")
		return
	}
	monitoring.FramesEncoded.Inc()
	c.sink.Send(p)
}
