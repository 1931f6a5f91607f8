package websocket

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/com"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 64 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
)

type MessageHandler func(message []byte, err error)

// WS wraps a gorilla websocket connection with single reader and
// writer pumps, so all socket access is serialized.
type WS struct {
	id   com.Uid
	conn deadlinedConn
	send chan []byte
	once sync.Once

	OnMessage MessageHandler

	pingPong bool
	server   bool

	shutdown sync.WaitGroup
	Done     chan struct{}

	log *logger.Logger
}

var DefaultUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
}

// NewUpgrader restricts handshakes to the given origin.
func NewUpgrader(origin string) *websocket.Upgrader {
	u := DefaultUpgrader
	if origin != "" {
		u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	} else {
		u.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return &u
}

// NewServer upgrades an http request into a server-side socket with
// ping/pong keepalive enabled.
func NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger, upgrader *websocket.Upgrader) (*WS, error) {
	if upgrader == nil {
		upgrader = &DefaultUpgrader
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, true, log), nil
}

// NewClient dials the address and returns a client-side socket.
func NewClient(address url.URL, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, isServer bool, log *logger.Logger) *WS {
	ws := &WS{
		id:       com.NewUid(),
		conn:     deadlinedConn{sock: conn, wt: writeWait},
		send:     make(chan []byte, 16),
		pingPong: isServer,
		server:   isServer,
		Done:     make(chan struct{}, 1),
		log:      log,
	}
	ws.shutdown.Add(2)
	return ws
}

func (ws *WS) Id() com.Uid    { return ws.id }
func (ws *WS) IsServer() bool { return ws.server }

// Listen starts the reader and writer pumps. OnMessage must be set before.
func (ws *WS) Listen() {
	go ws.writer()
	go ws.reader()
}

// reader pumps messages from the websocket connection to the OnMessage
// callback. Serializes all websocket reads.
func (ws *WS) reader() {
	defer func() {
		ws.closeSend()
		ws.shutdown.Done()
		ws.close()
	}()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(maxMessageSize)
		if ws.pingPong {
			_ = conn.SetReadDeadline(time.Now().Add(pongTime))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongTime))
			})
		}
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug().Err(err).Str("cid", ws.id.Short()).Msg("ws read")
			}
			return
		}
		ws.OnMessage(message, nil)
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Serializes all websocket writes.
func (ws *WS) writer() {
	var ticker *time.Ticker
	var ping <-chan time.Time
	if ws.pingPong {
		ticker = time.NewTicker(pingTime)
		ping = ticker.C
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		ws.shutdown.Done()
		// unblocks the reader stuck in a pending read
		_ = ws.conn.close()
		ws.close()
	}()
	for {
		select {
		case message, ok := <-ws.send:
			if !ok {
				_ = ws.conn.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ping:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Write queues data for sending; drops when the socket is closing.
func (ws *WS) Write(data []byte) {
	defer func() { recover() }()
	ws.send <- data
}

func (ws *WS) Close() {
	_ = ws.conn.write(websocket.CloseMessage, []byte{})
	_ = ws.conn.close()
}

func (ws *WS) closeSend() { ws.once.Do(func() { close(ws.send) }) }

func (ws *WS) close() {
	ws.shutdown.Wait()
	_ = ws.conn.close()
	select {
	case ws.Done <- struct{}{}:
	default:
	}
}
