package signal

import (
	"context"
	"time"

	"github.com/dkeye/stagehand/internal/app/orch"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.ConnID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid domain.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
		if err := ctl.Orch.Enqueue(ctx, orch.Event{Kind: orch.EventDisconnect, SID: sid}); err != nil {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("disconnect not delivered")
		}
	}()

	pongWait := ctl.Opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := NewConnRateLimiter(ctl.Opts.MessagesPerSecond, ctl.Opts.Burst)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			if !limiter.Allow() {
				ctl.Orch.Metrics.Dropped.WithLabelValues(metrics.ReasonRateLimited).Inc()
				log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited, message dropped")
				continue
			}
			if ctl.handleControl(c, data) {
				continue
			}
			if err := ctl.Orch.Enqueue(ctx, orch.Event{Kind: orch.EventMessage, SID: sid, Data: data}); err != nil {
				return
			}
		}
	}
}
