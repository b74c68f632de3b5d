package signal

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	evPing = "ping"
	evPong = "pong"
)

// Anything longer is an application message.
const maxControlSize = 64

// handleControl answers transport-level messages without involving the
// orchestrator. It reports whether data was consumed.
func (ctl *SignalWSController) handleControl(conn *WsSignalConn, data []byte) bool {
	if len(data) > maxControlSize || !bytes.Contains(data, []byte(evPing)) {
		return false
	}
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event != evPing {
		return false
	}
	ctl.handlePing(conn)
	return true
}

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	frame, err := protocol.Encode(evPong, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode pong")
		return
	}
	_ = conn.TrySend(frame)
}
