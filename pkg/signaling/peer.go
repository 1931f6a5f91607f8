package signaling

import (
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/api"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/network/websocket"
	"github.com/goccy/go-json"
)

// Peer is one signaling connection with its registered role.
type Peer struct {
	id   string
	role api.Role
	conn *websocket.WS
	room *Room
	log  *logger.Logger
}

func newPeer(conn *websocket.WS, log *logger.Logger) *Peer {
	return &Peer{conn: conn, log: log}
}

// Send serializes the packet onto this connection's writer pump,
// preserving per-sender order.
func (p *Peer) Send(out api.Out) {
	data, err := json.Marshal(out)
	if err != nil {
		p.log.Error().Err(err).Msg("packet marshal")
		return
	}
	p.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", out.T)
	p.conn.Write(data)
}

// SendError reports a failed operation back to the originating peer;
// errors are never silently swallowed.
func (p *Peer) SendError(in api.In, err error) {
	p.Send(api.Out{
		Id: in.Id,
		T:  api.Error,
		Payload: api.ErrorReply{
			Code:    api.ErrorCode(err),
			Message: err.Error(),
		},
	})
}
