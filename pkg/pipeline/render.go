package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/monitoring"
)

// Display is the render sink. Show is called from the render loop only.
type Display interface {
	Show(frame *capture.Frame) error
}

// Render consumes payloads pushed by the transport, decodes them and
// feeds the display at whatever rate it can sustain. When decode plus
// display cannot keep pace, older undisplayed payloads are discarded
// in favor of the newest, mirroring the capture-side policy.
type Render struct {
	codec encoder.Codec
	out   Display
	latch *Latch[*encoder.Payload]
	rate  rate
	log   *logger.Logger
}

func NewRender(codec encoder.Codec, out Display, log *logger.Logger) *Render {
	return &Render{codec: codec, out: out, latch: NewLatch[*encoder.Payload](), log: log}
}

// Submit hands a received payload to the render loop. Never blocks.
func (r *Render) Submit(p *encoder.Payload) {
	if r.latch.Set(p) {
		monitoring.FramesDropped.Inc()
	}
}

// Run blocks until ctx is done, displaying the most recent frame.
func (r *Render) Run(ctx context.Context) {
	cancel := make(chan struct{})
	go func() { <-ctx.Done(); close(cancel) }()
	for {
		p, ok := r.latch.Take(cancel)
		if !ok {
			return
		}
		frame, err := r.codec.Decode(p)
		if err != nil {
			monitoring.DecodeErrors.Inc()
			r.log.Warn().Err(err).Uint64("seq", p.Seq).Msg("frame discarded")
			continue
		}
		if err = r.out.Show(frame); err != nil {
			r.log.Warn().Err(err).Uint64("seq", frame.Seq).Msg("display failed")
			continue
		}
		monitoring.FramesRendered.Inc()
		r.rate.tick()
		monitoring.RenderFps.Set(r.rate.value())
	}
}

// Fps returns the rolling frames-per-second of the display loop.
// Observability only, no effect on pipeline behavior.
func (r *Render) Fps() float64 { return r.rate.value() }

// rate is a one-second-window frame counter.
type rate struct {
	mu    sync.Mutex
	count int
	fps   float64
	mark  time.Time
}

func (r *rate) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if r.mark.IsZero() {
		r.mark = now
	}
	r.count++
	if d := now.Sub(r.mark); d >= time.Second {
		r.fps = float64(r.count) / d.Seconds()
		r.count = 0
		r.mark = now
	}
}

func (r *rate) value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fps
}
