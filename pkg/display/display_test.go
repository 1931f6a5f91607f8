package display

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
)

func solidFrame(w, h int, c color.RGBA, seq uint64) *capture.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return capture.FromRGBA(img, seq, time.Now())
}

func TestSoftCopiesSameSize(t *testing.T) {
	s := NewSoft(4, 4)
	red := color.RGBA{R: 255, A: 255}
	if err := s.Show(solidFrame(4, 4, red, 1)); err != nil {
		t.Fatal(err)
	}
	if got := s.Framebuffer().RGBAAt(2, 2); got != red {
		t.Fatalf("expected %v, got %v", red, got)
	}
	if s.Shown() != 1 {
		t.Fatalf("expected 1 shown, got %d", s.Shown())
	}
}

func TestSoftScalesMismatchedFrames(t *testing.T) {
	s := NewSoft(8, 8)
	blue := color.RGBA{B: 255, A: 255}
	if err := s.Show(solidFrame(2, 2, blue, 1)); err != nil {
		t.Fatal(err)
	}
	fb := s.Framebuffer()
	for _, p := range []image.Point{{0, 0}, {4, 4}, {7, 7}} {
		if got := fb.RGBAAt(p.X, p.Y); got != blue {
			t.Fatalf("at %v expected %v, got %v", p, blue, got)
		}
	}
}

func TestNoop(t *testing.T) {
	var n Noop
	if err := n.Show(solidFrame(1, 1, color.RGBA{}, 1)); err != nil {
		t.Fatal(err)
	}
	if err := n.Close(); err != nil {
		t.Fatal(err)
	}
}
