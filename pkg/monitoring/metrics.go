package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame pipeline counters. They observe the drop policy, they never
// drive it.
var (
	FramesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "frames_captured_total",
		Help: "Frames grabbed from the capture source.",
	})
	FramesEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "frames_encoded_total",
		Help: "Frames successfully encoded into payloads.",
	})
	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "frames_rendered_total",
		Help: "Frames decoded and handed to the display sink.",
	})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "frames_dropped_total",
		Help: "Stale payloads superseded before delivery.",
	})
	CaptureErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "capture_errors_total",
		Help: "Skipped capture cycles.",
	})
	EncodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "encode_errors_total",
		Help: "Skipped encode cycles.",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "screencast", Name: "decode_errors_total",
		Help: "Discarded undecodable payloads.",
	})
	RenderFps = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "screencast", Name: "render_fps",
		Help: "Rolling display frame rate.",
	})
)
