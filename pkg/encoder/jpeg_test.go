package encoder

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
)

func genTestFrame(w, h int, seq uint64, seed uint8) *capture.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = seed
		img.Pix[i+1] = seed / 2
		img.Pix[i+2] = 255 - seed
		img.Pix[i+3] = 0xff
	}
	return capture.FromRGBA(img, seq, time.Now())
}

func TestRoundTripKeepsDimensionsAndSeq(t *testing.T) {
	tests := []struct {
		w, h    int
		quality int
		seq     uint64
	}{
		{w: 320, h: 240, quality: 85, seq: 1},
		{w: 640, h: 480, quality: 10, seq: 42},
		{w: 31, h: 17, quality: 100, seq: 7},
	}

	c := NewJPEG()
	for _, test := range tests {
		in := genTestFrame(test.w, test.h, test.seq, 200)
		p, err := c.Encode(in, test.quality)
		if err != nil {
			t.Fatalf("encode %dx%d: %v", test.w, test.h, err)
		}
		out, err := c.Decode(p)
		if err != nil {
			t.Fatalf("decode %dx%d: %v", test.w, test.h, err)
		}
		if out.W != in.W || out.H != in.H {
			t.Errorf("dimensions changed: %dx%d -> %dx%d", in.W, in.H, out.W, out.H)
		}
		if out.Seq != in.Seq {
			t.Errorf("seq changed: %d -> %d", in.Seq, out.Seq)
		}
	}
}

func TestEncodeEmptyFrame(t *testing.T) {
	c := NewJPEG()
	if _, err := c.Encode(&capture.Frame{}, 85); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	c := NewJPEG()
	p, err := c.Encode(genTestFrame(100, 100, 1, 50), 85)
	if err != nil {
		t.Fatal(err)
	}
	p.Data = p.Data[:len(p.Data)/2]
	if _, err = c.Decode(p); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload for truncated data, got %v", err)
	}
	p.Data = []byte("not a payload at all")
	if _, err = c.Decode(p); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload for garbage, got %v", err)
	}
}
