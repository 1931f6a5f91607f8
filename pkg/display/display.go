// Package display holds the render sinks: an SDL window for actual
// viewing and a software blitter for headless runs and tests.
package display

import (
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
)

// Renderer shows decoded frames. Show is only ever called from a
// single render loop.
type Renderer interface {
	Show(frame *capture.Frame) error
	ToggleFullscreen()
	Close() error
}

// Noop discards frames.
type Noop struct{}

func (Noop) Show(*capture.Frame) error { return nil }
func (Noop) ToggleFullscreen()         {}
func (Noop) Close() error              { return nil }
