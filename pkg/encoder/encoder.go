// Package encoder turns raw frames into compact wire payloads and back.
package encoder

import (
	"errors"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
)

// Payload is the compressed representation of one captured frame.
// It is owned transiently by the pipeline between encode and send;
// superseded payloads are dropped, never queued.
type Payload struct {
	Data  []byte
	Seq   uint64
	Stamp int64 // unix micros of the capture
	W, H  int
}

func (p *Payload) Size() int { return len(p.Data) }

// Codec is a swappable frame codec. The still-image implementation
// treats every payload as fully independent, so payloads are safe
// to drop arbitrarily.
type Codec interface {
	// Encode compresses a frame. The quality param is codec-specific;
	// for JPEG it is the 1..100 quality factor.
	Encode(frame *capture.Frame, quality int) (*Payload, error)
	// Decode restores a frame. A partially corrupt payload yields an
	// error and a discarded frame, never a panic.
	Decode(p *Payload) (*capture.Frame, error)
}

var (
	ErrEmptyFrame = errors.New("encoder: empty frame")
	ErrBadPayload = errors.New("encoder: undecodable payload")
)
