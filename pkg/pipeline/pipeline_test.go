package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
)

var l = logger.New(false)

// fakeSource fails on requested capture cycles and counts the rest.
type fakeSource struct {
	seq     atomic.Uint64
	failOn  map[uint64]bool
	grabbed atomic.Uint64
}

func (f *fakeSource) Size() (int, int) { return 16, 16 }

func (f *fakeSource) CaptureOnce() (*capture.Frame, error) {
	n := f.seq.Add(1)
	if f.failOn[n] {
		return nil, errors.New("grab failed")
	}
	f.grabbed.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	return capture.FromRGBA(img, n, time.Now()), nil
}

type collectSink struct {
	mu   sync.Mutex
	seqs []uint64
}

func (s *collectSink) Send(p *encoder.Payload) {
	s.mu.Lock()
	s.seqs = append(s.seqs, p.Seq)
	s.mu.Unlock()
}

func TestCaptureSkipsFailedCycle(t *testing.T) {
	src := &fakeSource{failOn: map[uint64]bool{3: true}}
	sink := &collectSink{}
	c := NewCapture(src, encoder.NewJPEG(), sink, 200, 85, l)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	for {
		sink.mu.Lock()
		n := len(sink.seqs)
		sink.mu.Unlock()
		if n >= 6 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	prev := uint64(0)
	gap := false
	for _, s := range sink.seqs {
		if s <= prev {
			t.Fatalf("sequence not strictly increasing: %v", sink.seqs)
		}
		if s == prev+2 {
			gap = true
		}
		prev = s
	}
	if !gap {
		t.Errorf("expected exactly one seq gap after a failed capture, got %v", sink.seqs[:6])
	}
}

type countingDisplay struct {
	mu    sync.Mutex
	seqs  []uint64
	delay time.Duration
}

func (d *countingDisplay) Show(f *capture.Frame) error {
	d.mu.Lock()
	d.seqs = append(d.seqs, f.Seq)
	d.mu.Unlock()
	time.Sleep(d.delay)
	return nil
}

func TestRenderDropsStaleKeepsOrder(t *testing.T) {
	codec := encoder.NewJPEG()
	out := &countingDisplay{delay: 10 * time.Millisecond}
	r := NewRender(codec, out, l)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); r.Run(ctx) }()

	const produced = 50
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for i := 1; i <= produced; i++ {
		p, err := codec.Encode(capture.FromRGBA(img, uint64(i), time.Now()), 50)
		if err != nil {
			t.Fatal(err)
		}
		r.Submit(p)
		time.Sleep(time.Millisecond)
	}
	// let the last pending frame drain
	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.seqs) == 0 || len(out.seqs) > produced {
		t.Fatalf("rendered %d of %d produced", len(out.seqs), produced)
	}
	for i := 1; i < len(out.seqs); i++ {
		if out.seqs[i] <= out.seqs[i-1] {
			t.Errorf("render order violated: %v", out.seqs)
		}
	}
}

func TestRenderDiscardsBadPayload(t *testing.T) {
	codec := encoder.NewJPEG()
	out := &countingDisplay{}
	r := NewRender(codec, out, l)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); r.Run(ctx) }()

	r.Submit(&encoder.Payload{Data: []byte("garbage"), Seq: 1})
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	p, _ := codec.Encode(capture.FromRGBA(img, 2, time.Now()), 85)
	r.Submit(p)

	deadline := time.After(time.Second)
	for {
		out.mu.Lock()
		n := len(out.seqs)
		out.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("good frame after a bad one was not rendered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	wg.Wait()
}
