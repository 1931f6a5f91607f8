package encoder

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
)

// JPEG is the still-image codec of the TCP path: JPEG at a given
// quality factor, then zlib on top for an extra size cut.
type JPEG struct{}

func NewJPEG() *JPEG { return &JPEG{} }

func (c *JPEG) Encode(frame *capture.Frame, quality int) (*Payload, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, frame.RGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err = zw.Write(jpg.Bytes()); err != nil {
		return nil, err
	}
	if err = zw.Close(); err != nil {
		return nil, err
	}
	return &Payload{
		Data:  out.Bytes(),
		Seq:   frame.Seq,
		Stamp: frame.Stamp.UnixMicro(),
		W:     frame.W,
		H:     frame.H,
	}, nil
}

func (c *JPEG) Decode(p *Payload) (*capture.Frame, error) {
	zr, err := zlib.NewReader(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	defer func() { _ = zr.Close() }()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return capture.FromRGBA(rgba, p.Seq, time.UnixMicro(p.Stamp)), nil
}
