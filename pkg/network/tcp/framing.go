package tcp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/goccy/go-json"
)

// Wire format of one frame message:
//
//	4 bytes  big-endian header length
//	n bytes  JSON header {t, seq, ts, len, w, h}
//	m bytes  raw payload (m equals header len field)
//
// The length prefix plus the len field let a reader consume a message
// without scanning for delimiters even when the payload is truncated.
type header struct {
	T   string `json:"t"`
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
	Len int    `json:"len"`
	W   int    `json:"w"`
	H   int    `json:"h"`
}

const (
	msgFrame = "frame"

	maxHeaderSize  = 4 * 1024
	maxPayloadSize = 64 * 1024 * 1024
)

// WriteFrame writes one framed payload to w.
func WriteFrame(w io.Writer, p *encoder.Payload) error {
	hdr, err := json.Marshal(header{T: msgFrame, Seq: p.Seq, Ts: p.Stamp, Len: len(p.Data), W: p.W, H: p.H})
	if err != nil {
		return err
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(hdr)))
	if _, err = w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err = w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(p.Data)
	return err
}

// EncodeFrame frames one payload into a standalone message, for
// transports that carry whole messages instead of a byte stream.
func EncodeFrame(p *encoder.Payload) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(p.Data) + 128)
	if err := WriteFrame(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame is the message-based inverse of EncodeFrame.
func DecodeFrame(data []byte) (*encoder.Payload, error) {
	return ReadFrame(bytes.NewReader(data))
}

// ReadFrame reads one framed payload from r.
func ReadFrame(r io.Reader) (*encoder.Payload, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	hn := binary.BigEndian.Uint32(prefix[:])
	if hn == 0 || hn > maxHeaderSize {
		return nil, fmt.Errorf("tcp: bad header size %d", hn)
	}
	raw := make([]byte, hn)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	var hdr header
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("tcp: bad header: %w", err)
	}
	if hdr.T != msgFrame {
		return nil, fmt.Errorf("tcp: unexpected message type %q", hdr.T)
	}
	if hdr.Len < 0 || hdr.Len > maxPayloadSize {
		return nil, fmt.Errorf("tcp: bad payload size %d", hdr.Len)
	}
	data := make([]byte, hdr.Len)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return &encoder.Payload{Data: data, Seq: hdr.Seq, Stamp: hdr.Ts, W: hdr.W, H: hdr.H}, nil
}
