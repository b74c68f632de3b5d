package orch

import (
	"github.com/dkeye/stagehand/internal/app"
	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/metrics"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/rs/zerolog/log"
)

// BroadcastToAll sends to every connection regardless of role.
func (o *Orchestrator) BroadcastToAll(event string, data any) core.PublishResult {
	frame, ok := o.encode(event, data)
	if !ok {
		return core.PublishResult{}
	}
	res := o.deliver(event, frame, o.Registry.All()...)
	log.Debug().Str("module", "orch").Str("event", event).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// SendToParticipant delivers to the earliest registered connection holding
// n. Nothing happens when no connection holds it.
func (o *Orchestrator) SendToParticipant(n domain.ParticipantID, event string, data any) bool {
	t, ok := o.Registry.FindParticipant(n)
	if !ok {
		o.missingTarget(event, "participant")
		return false
	}
	return o.sendTo(t, event, data)
}

// SendToDirector delivers only while the director slot is held.
func (o *Orchestrator) SendToDirector(event string, data any) bool {
	t, ok := o.Registry.Director()
	if !ok {
		o.missingTarget(event, "director")
		return false
	}
	return o.sendTo(t, event, data)
}

// SendToNarrator completes the role-targeted send set. No client command
// targets the narrator alone today; it is kept for operator tooling.
func (o *Orchestrator) SendToNarrator(event string, data any) bool {
	t, ok := o.Registry.Narrator()
	if !ok {
		o.missingTarget(event, "narrator")
		return false
	}
	return o.sendTo(t, event, data)
}

func (o *Orchestrator) sendTo(t core.Target, event string, data any) bool {
	frame, ok := o.encode(event, data)
	if !ok {
		return false
	}
	return o.deliver(event, frame, t).SendTo == 1
}

func (o *Orchestrator) missingTarget(event, role string) {
	o.Metrics.Dropped.WithLabelValues(metrics.ReasonNoTarget).Inc()
	log.Debug().Str("module", "orch").Str("event", event).Str("target", role).Msg("no target, dropped")
}

func (o *Orchestrator) encode(event string, data any) (core.Frame, bool) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return nil, false
	}
	return frame, true
}

func (o *Orchestrator) deliver(event string, frame core.Frame, targets ...core.Target) core.PublishResult {
	res := core.PublishResult{}
	for _, t := range targets {
		if err := t.Signal.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, t)
			continue
		}
		res.SendTo++
	}
	o.Metrics.Sent.WithLabelValues(event).Add(float64(res.SendTo))
	o.applyPolicy(res)
	return res
}

func (o *Orchestrator) applyPolicy(res core.PublishResult) {
	for _, slow := range res.Dropped {
		o.Metrics.Dropped.WithLabelValues(metrics.ReasonBackpressure).Inc()
		if o.Policy == nil {
			continue
		}
		switch o.Policy.OnBackPressure(slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.SID)).Msg("kicking slow connection")
			// The read pump notices the closed socket and reports the disconnect.
			slow.Signal.Close()
		case app.DropFrame, app.NoAction:
		}
	}
}
