package orch

import (
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/rs/zerolog/log"
)

// RegisterParticipant binds an identity to the connection and pushes the
// new participant list to the director. Out-of-range and duplicate
// identities are accepted.
func (o *Orchestrator) RegisterParticipant(sid domain.ConnID, n domain.ParticipantID) {
	if _, ok := o.Registry.SetParticipant(sid, n); !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("register on unknown connection")
		return
	}
	if !n.InRange() {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Int("number", int(n)).Msg("participant id outside usual range")
	}
	o.notifyClientList()
}

func (o *Orchestrator) RegisterDirector(sid domain.ConnID) {
	if _, ok := o.Registry.SetDirector(sid); !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("register on unknown connection")
		return
	}
	// A freshly loaded console starts with an empty list.
	o.notifyClientList()
}

func (o *Orchestrator) RegisterNarrator(sid domain.ConnID) {
	prev, ok := o.Registry.SetNarrator(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("register on unknown connection")
		return
	}
	if prev == domain.RoleParticipant {
		o.notifyClientList()
	}
}

func (o *Orchestrator) notifyClientList() {
	list := o.Registry.Participants()
	o.Metrics.Participants.Set(float64(len(list)))
	o.SendToDirector(protocol.OutClientList, list)
}
