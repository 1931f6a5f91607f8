package capture

import (
	"image"
	"time"
)

// Frame is an immutable snapshot of the screen. It is produced once,
// encoded once, and never mutated after creation.
type Frame struct {
	W, H int
	// RGBA pixel data, 4 bytes per pixel
	Pix []uint8
	// capture wall-clock time
	Stamp time.Time
	// strictly increasing per source
	Seq uint64
}

// FromRGBA wraps an image without copying the pixel buffer.
func FromRGBA(img *image.RGBA, seq uint64, stamp time.Time) *Frame {
	b := img.Bounds()
	return &Frame{W: b.Dx(), H: b.Dy(), Pix: img.Pix, Stamp: stamp, Seq: seq}
}

// RGBA re-wraps the frame pixels into a stdlib image for encoders and sinks.
func (f *Frame) RGBA() *image.RGBA {
	return &image.RGBA{Pix: f.Pix, Stride: f.W * 4, Rect: image.Rect(0, 0, f.W, f.H)}
}

func (f *Frame) Empty() bool { return f == nil || f.W == 0 || f.H == 0 || len(f.Pix) == 0 }
