package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/encoder"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
)

const readWait = 30 * time.Second

// Client is the viewer side of the TCP media path.
type Client struct {
	conn net.Conn
	log  *logger.Logger
}

func Dial(address string, log *logger.Logger) (*Client, error) {
	conn, err := net.DialTimeout("tcp", address, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial %v: %w", address, err)
	}
	log.Info().Msgf("connected to host %v", conn.RemoteAddr())
	return &Client{conn: conn, log: log}, nil
}

// Run reads framed payloads and pushes each to onPayload until the
// connection drops or ctx is done. Reads carry a rolling deadline so
// Close always unblocks them promptly.
func (c *Client) Run(ctx context.Context, onPayload func(*encoder.Payload)) error {
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()
	r := bufio.NewReaderSize(c.conn, 64*1024)
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		p, err := ReadFrame(r)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("tcp: receive: %w", err)
		}
		onPayload(p)
	}
}

func (c *Client) Close() { _ = c.conn.Close() }
