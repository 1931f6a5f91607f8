package tcp

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
)

var l = logger.New(false)

func TestFramingRoundTrip(t *testing.T) {
	in := &encoder.Payload{Data: []byte{1, 2, 3, 4, 5}, Seq: 77, Stamp: 123456, W: 640, H: 480}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if out.Seq != in.Seq || out.Stamp != in.Stamp || out.W != in.W || out.H != in.H {
		t.Errorf("header mismatch: %+v != %+v", out, in)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Errorf("payload mismatch")
	}
}

func TestFramingTruncated(t *testing.T) {
	in := &encoder.Payload{Data: make([]byte, 100), Seq: 1}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatal(err)
	}
	cut := bytes.NewReader(buf.Bytes()[:buf.Len()-10])
	if _, err := ReadFrame(cut); err == nil {
		t.Error("expected an error for a truncated message")
	}
}

type sink struct {
	mu   sync.Mutex
	seqs []uint64
}

func (s *sink) add(p *encoder.Payload) {
	s.mu.Lock()
	s.seqs = append(s.seqs, p.Seq)
	s.mu.Unlock()
}

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seqs)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition was not met in time")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestBroadcastToTwoClientsIndependently(t *testing.T) {
	b, err := NewBroadcaster("127.0.0.1:0", l)
	if err != nil {
		t.Fatal(err)
	}
	b.Run()
	defer func() { _ = b.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := b.Addr().String()
	var s1, s2 sink

	c1, err := Dial(addr, l)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Dial(addr, l)
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = c1.Run(ctx, s1.add) }()
	go func() { _ = c2.Run(ctx, s2.add) }()

	waitFor(t, func() bool { return b.Clients() == 2 })

	feed := func(from, to uint64) {
		for i := from; i <= to; i++ {
			b.Send(&encoder.Payload{Data: []byte("x"), Seq: i})
			time.Sleep(2 * time.Millisecond)
		}
	}
	feed(1, 20)
	waitFor(t, func() bool { return s1.len() > 0 && s2.len() > 0 })

	// disconnecting one client mid-stream must not interrupt the other
	c1.Close()
	waitFor(t, func() bool { return b.Clients() == 1 })

	before := s2.len()
	feed(21, 40)
	waitFor(t, func() bool { return s2.len() > before })

	s2.mu.Lock()
	defer s2.mu.Unlock()
	for i := 1; i < len(s2.seqs); i++ {
		if s2.seqs[i] <= s2.seqs[i-1] {
			t.Fatalf("delivery order violated: %v", s2.seqs)
		}
	}
}

func TestSendNeverBlocksOnStalledClient(t *testing.T) {
	b, err := NewBroadcaster("127.0.0.1:0", l)
	if err != nil {
		t.Fatal(err)
	}
	b.Run()
	defer func() { _ = b.Shutdown(context.Background()) }()

	// a client that connects and never reads
	c, err := Dial(b.Addr().String(), l)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	waitFor(t, func() bool { return b.Clients() == 1 })

	payload := &encoder.Payload{Data: make([]byte, 1024*1024), Seq: 1}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			payload.Seq = uint64(i + 1)
			b.Send(payload)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("send blocked on a stalled client")
	}
}
