package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/stagehand/internal/app/orch"
	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrSendQueueFull = errors.New("signal: send queue full")
	ErrConnClosed    = errors.New("signal: connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
	// MessagesPerSecond <= 0 disables inbound rate limiting.
	MessagesPerSecond float64
	Burst             int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 16 << 20
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	Opts Options
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch: o,
		Opts: opts.withDefaults(),
	}
}

// WsSignalConn is the outbound half of one websocket client. Frames go
// through a bounded queue drained by the write pump, so a stalled client
// never blocks the event loop.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

// TrySend queues f without blocking. It fails with ErrSendQueueFull when
// the client lags behind and ErrConnClosed after Close.
func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close stops the write pump and drops the socket. Safe to call from
// both pumps and from the backpressure policy.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and wires the connection into the
// orchestrator. Role registration happens later, by message.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.NewConnID()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Opts.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("addr", c.ClientIP()).Msg("new WS connection")

	if err := ctl.Orch.Enqueue(ctx, orch.Event{
		Kind:       orch.EventConnect,
		SID:        sid,
		Signal:     conn,
		RemoteAddr: c.ClientIP(),
	}); err != nil {
		conn.Close()
		return
	}

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, sid, conn)
}
