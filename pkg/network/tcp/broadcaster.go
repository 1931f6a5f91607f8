package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/com"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/pipeline"
)

const writeWait = 10 * time.Second

// State of one client connection.
type State uint8

const (
	Connected State = iota
	Streaming
	Disconnected
	Failed
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Streaming:
		return "streaming"
	case Disconnected:
		return "disconnected"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Broadcaster streams payloads to every connected client independently.
// Each client owns its write path and its own single-slot latch, so a
// slow or dead client drops its own stale payloads and never holds up
// the others or the capture side.
type Broadcaster struct {
	listener net.Listener
	clients  com.NetMap[com.Uid, *remote]
	log      *logger.Logger
	closed   chan struct{}
}

type remote struct {
	id    com.Uid
	conn  net.Conn
	latch *pipeline.Latch[*encoder.Payload]
	state State
	stop  chan struct{}
	once  sync.Once
	log   *logger.Logger
}

func (r *remote) Id() com.Uid { return r.id }

func (r *remote) Disconnect() {
	r.once.Do(func() {
		close(r.stop)
		_ = r.conn.Close()
	})
}

// NewBroadcaster binds the media listener. A busy port is a fatal
// startup error for the caller.
func NewBroadcaster(address string, log *logger.Logger) (*Broadcaster, error) {
	ls, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("media tcp %v", ls.Addr())
	return &Broadcaster{
		listener: ls,
		clients:  com.NewNetMap[com.Uid, *remote](),
		log:      log,
		closed:   make(chan struct{}),
	}, nil
}

func (b *Broadcaster) Addr() net.Addr { return b.listener.Addr() }

// Run accepts client connections until Shutdown.
func (b *Broadcaster) Run() { go b.accept() }

func (b *Broadcaster) accept() {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-b.closed:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			b.log.Warn().Err(err).Msg("accept")
			continue
		}
		c := &remote{
			id:    com.NewUid(),
			conn:  conn,
			latch: pipeline.NewLatch[*encoder.Payload](),
			state: Connected,
			stop:  make(chan struct{}),
		}
		c.log = b.log.Extend(b.log.With().Str("cid", c.id.Short()))
		c.log.Info().Msgf("client %v connected", conn.RemoteAddr())
		b.clients.Add(c)
		go b.serve(c)
	}
}

// serve owns the write path of a single client.
func (b *Broadcaster) serve(c *remote) {
	defer func() {
		b.clients.Remove(c)
		_ = c.conn.Close()
		c.log.Info().Msgf("client %v %v", c.conn.RemoteAddr(), c.state)
	}()
	for {
		p, ok := c.latch.Take(c.stop)
		if !ok {
			c.state = Disconnected
			return
		}
		c.state = Streaming
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := WriteFrame(c.conn, p); err != nil {
			c.state = Failed
			c.log.Debug().Err(err).Msg("write")
			return
		}
	}
}

// Send offers the payload to every current client. Never blocks: each
// client latches the newest payload and older pending ones are dropped
// per client.
func (b *Broadcaster) Send(p *encoder.Payload) {
	for _, c := range b.clients.Snapshot() {
		c.latch.Set(p)
	}
}

// Clients reports the size of the broadcast set.
func (b *Broadcaster) Clients() int { return b.clients.Len() }

func (b *Broadcaster) Shutdown(ctx context.Context) error {
	close(b.closed)
	err := b.listener.Close()
	b.clients.ForEach(func(c *remote) { c.Disconnect() })
	return err
}
