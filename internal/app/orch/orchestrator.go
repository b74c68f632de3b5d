package orch

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/dkeye/stagehand/internal/app"
	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/metrics"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/rs/zerolog/log"
)

type EventKind int

const (
	EventConnect EventKind = iota
	EventDisconnect
	EventMessage
	EventCommand
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventCommand:
		return "command"
	default:
		return "message"
	}
}

// Event is one transport occurrence. Signal and RemoteAddr are set on
// connect, Data on message. Cmd carries an already decoded command from
// outside the websocket path (admin API).
type Event struct {
	Kind       EventKind
	SID        domain.ConnID
	Signal     core.SignalConnection
	RemoteAddr string
	Data       []byte
	Cmd        protocol.Command
}

type Options struct {
	// ResetPhotosOnShooting clears the photo store whenever a new
	// shooting round starts.
	ResetPhotosOnShooting bool
	QueueSize             int
}

// Orchestrator owns every mutation of the registry and the photo store.
// Events are handled one at a time on the goroutine running Run.
type Orchestrator struct {
	Registry *app.Registry
	Photos   *app.PhotoStore
	Policy   app.Policy
	Metrics  *metrics.Metrics
	Options  Options

	events chan Event
}

func New(reg *app.Registry, photos *app.PhotoStore, policy app.Policy, m *metrics.Metrics, opts Options) *Orchestrator {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Orchestrator{
		Registry: reg,
		Photos:   photos,
		Policy:   policy,
		Metrics:  m,
		Options:  opts,
		events:   make(chan Event, opts.QueueSize),
	}
}

// Run processes events until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) {
	log.Info().Str("module", "orch").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("event loop stopped")
			return
		case ev := <-o.events:
			o.Handle(ev)
		}
	}
}

// Enqueue hands an event to the loop, blocking while the queue is full.
func (o *Orchestrator) Enqueue(ctx context.Context, ev Event) error {
	select {
	case o.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle runs a single event to completion. A panicking handler only
// loses its own event.
func (o *Orchestrator) Handle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			o.Metrics.HandlerPanics.Inc()
			log.Error().
				Str("module", "orch").
				Str("sid", string(ev.SID)).
				Stringer("kind", ev.Kind).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panic recovered")
		}
	}()

	switch ev.Kind {
	case EventConnect:
		o.OnConnect(ev.SID, ev.Signal, ev.RemoteAddr)
	case EventDisconnect:
		o.OnDisconnect(ev.SID)
	case EventMessage:
		o.OnMessage(ev.SID, ev.Data)
	case EventCommand:
		o.Dispatch(ev.SID, ev.Cmd)
	}
}

func (o *Orchestrator) OnConnect(sid domain.ConnID, sig core.SignalConnection, remoteAddr string) {
	o.Registry.Bind(sid, sig, remoteAddr)
	o.Metrics.Connections.Set(float64(o.Registry.Len()))
}

func (o *Orchestrator) OnDisconnect(sid domain.ConnID) {
	d := o.Registry.Unbind(sid)
	o.Metrics.Connections.Set(float64(o.Registry.Len()))
	if !d.Known {
		return
	}
	if d.WasDirector {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("director disconnected")
	}
	if d.WasNarrator {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("narrator disconnected")
	}
	if d.Role == domain.RoleParticipant {
		o.notifyClientList()
	}
}

func (o *Orchestrator) OnMessage(sid domain.ConnID, data []byte) {
	cmd, err := protocol.Decode(data)
	if err != nil {
		o.Metrics.Dropped.WithLabelValues(metrics.ReasonBadMessage).Inc()
		ev := log.Warn()
		if !errors.Is(err, protocol.ErrUnknownEvent) {
			ev = log.Error()
		}
		ev.Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("inbound message ignored")
		return
	}
	o.Metrics.Received.WithLabelValues(cmd.Event()).Inc()
	o.Dispatch(sid, cmd)
}
