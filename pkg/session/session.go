// Package session negotiates peer connections through the signaling
// relay: hosts push offers to every client that shows up in the room,
// clients answer and hand the established media path to their render
// side.
package session

import (
	"net/url"
	"strings"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/websocket"
	"github.com/gofrs/uuid"
	"github.com/goccy/go-json"
)

// newPeerId makes ids of the <role>_<8 hex> form, e.g. host_1b9d6bcd.
func newPeerId(role api.Role) string {
	u := uuid.Must(uuid.NewV4()).String()
	return string(role) + "_" + strings.ReplaceAll(u, "-", "")[:8]
}

// signal is one client connection to the relay.
type signal struct {
	conn *websocket.WS
	log  *logger.Logger
}

func dial(address string, log *logger.Logger) (*signal, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	conn, err := websocket.NewClient(*u, log)
	if err != nil {
		return nil, err
	}
	return &signal{conn: conn, log: log}, nil
}

// listen starts the socket pumps with the given packet handler.
func (s *signal) listen(handler func(in api.In)) {
	s.conn.OnMessage = func(message []byte, err error) {
		if err != nil {
			return
		}
		var in api.In
		if err = json.Unmarshal(message, &in); err != nil {
			s.log.Warn().Err(err).Msg("malformed relay packet")
			return
		}
		s.log.Debug().Str(logger.DirectionField, "←").Msgf("%v", in.T)
		handler(in)
	}
	s.conn.Listen()
}

func (s *signal) send(out api.Out) {
	data, err := json.Marshal(out)
	if err != nil {
		s.log.Error().Err(err).Msg("packet marshal")
		return
	}
	s.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", out.T)
	s.conn.Write(data)
}

func (s *signal) close()                { s.conn.Close() }
func (s *signal) done() <-chan struct{} { return s.conn.Done }
