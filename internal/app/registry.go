package app

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Signal      core.SignalConnection
	Role        domain.Role
	Number      domain.ParticipantID
	Seq         uint64 // participant registration order
	RemoteAddr  string
	ConnectedAt time.Time
}

// Registry is the connection registry: every live connection, the
// participant identities, and the single director and narrator slots.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
	director domain.ConnID
	narrator domain.ConnID
	nextSeq  uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnID]*sessionEntry),
	}
}

// Departure describes what a connection held when it was unbound.
type Departure struct {
	Known       bool
	Role        domain.Role
	Number      domain.ParticipantID
	WasDirector bool
	WasNarrator bool
}

func (r *Registry) Bind(sid domain.ConnID, sig core.SignalConnection, remoteAddr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Signal:      sig,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("addr", remoteAddr).Msg("bound connection")
}

func (r *Registry) Unbind(sid domain.ConnID) Departure {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return Departure{}
	}
	d := Departure{
		Known:       true,
		Role:        e.Role,
		Number:      e.Number,
		WasDirector: r.director == sid,
		WasNarrator: r.narrator == sid,
	}
	delete(r.sessions, sid)
	if d.WasDirector {
		r.director = ""
	}
	if d.WasNarrator {
		r.narrator = ""
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Stringer("role", e.Role).Msg("unbind connection")
	return d
}

// SetParticipant assigns role=participant and the identity. Re-registering
// overwrites the identity but keeps its first position in the list.
// It returns the role the connection held before.
func (r *Registry) SetParticipant(sid domain.ConnID, n domain.ParticipantID) (domain.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.RoleUnassigned, false
	}
	prev := e.Role
	r.releaseSlotLocked(sid)
	if prev != domain.RoleParticipant {
		r.nextSeq++
		e.Seq = r.nextSeq
	}
	e.Role = domain.RoleParticipant
	e.Number = n
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("number", int(n)).Msg("registered participant")
	return prev, true
}

// SetDirector moves the director slot to sid. The previous holder keeps
// its connection and is not told.
func (r *Registry) SetDirector(sid domain.ConnID) (domain.Role, bool) {
	return r.setSlot(sid, domain.RoleDirector, &r.director)
}

func (r *Registry) SetNarrator(sid domain.ConnID) (domain.Role, bool) {
	return r.setSlot(sid, domain.RoleNarrator, &r.narrator)
}

func (r *Registry) setSlot(sid domain.ConnID, role domain.Role, slot *domain.ConnID) (domain.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.RoleUnassigned, false
	}
	prev := e.Role
	r.releaseSlotLocked(sid)
	if old := *slot; old != "" && old != sid {
		if oe, ok := r.sessions[old]; ok && oe.Role == role {
			oe.Role = domain.RoleUnassigned
		}
		log.Info().Str("module", "app.registry").Str("sid", string(old)).Stringer("role", role).Msg("slot taken over")
	}
	*slot = sid
	e.Role = role
	e.Number = 0
	e.Seq = 0
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Stringer("role", role).Msg("registered")
	return prev, true
}

func (r *Registry) releaseSlotLocked(sid domain.ConnID) {
	if r.director == sid {
		r.director = ""
	}
	if r.narrator == sid {
		r.narrator = ""
	}
}

func (r *Registry) participantsLocked() []*sessionEntry {
	out := make([]*sessionEntry, 0, len(r.sessions))
	for _, e := range r.sessions {
		if e.Role == domain.RoleParticipant {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *sessionEntry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return out
}

// Participants lists every registered identity in registration order,
// one entry per connection.
func (r *Registry) Participants() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.participantsLocked()
	out := make([]domain.ParticipantID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Number)
	}
	return out
}

func (r *Registry) ParticipantTargets() []core.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Target, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.Role == domain.RoleParticipant {
			out = append(out, core.Target{SID: sid, Number: e.Number, Signal: e.Signal})
		}
	}
	slices.SortFunc(out, func(a, b core.Target) int {
		return cmp.Compare(r.sessions[a.SID].Seq, r.sessions[b.SID].Seq)
	})
	return out
}

// FindParticipant returns the earliest registered connection holding n.
func (r *Registry) FindParticipant(n domain.ParticipantID) (core.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best    core.Target
		bestSeq uint64
		found   bool
	)
	for sid, e := range r.sessions {
		if e.Role != domain.RoleParticipant || e.Number != n {
			continue
		}
		if !found || e.Seq < bestSeq {
			best = core.Target{SID: sid, Number: e.Number, Signal: e.Signal}
			bestSeq = e.Seq
			found = true
		}
	}
	return best, found
}

func (r *Registry) Director() (core.Target, bool) {
	return r.slotTarget(func() domain.ConnID { return r.director })
}

func (r *Registry) Narrator() (core.Target, bool) {
	return r.slotTarget(func() domain.ConnID { return r.narrator })
}

func (r *Registry) slotTarget(slot func() domain.ConnID) (core.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid := slot()
	if sid == "" {
		return core.Target{}, false
	}
	e, ok := r.sessions[sid]
	if !ok {
		return core.Target{}, false
	}
	return core.Target{SID: sid, Signal: e.Signal}, true
}

// All returns every connected connection regardless of role.
func (r *Registry) All() []core.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Target, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, core.Target{SID: sid, Number: e.Number, Signal: e.Signal})
	}
	return out
}

func (r *Registry) ParticipantOf(sid domain.ConnID) (domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Role != domain.RoleParticipant {
		return 0, false
	}
	return e.Number, true
}

func (r *Registry) RoleOf(sid domain.ConnID) domain.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Role
	}
	return domain.RoleUnassigned
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Snapshot() core.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := core.RegistrySnapshot{
		Director:     r.director,
		Narrator:     r.narrator,
		Participants: make([]domain.ParticipantID, 0),
		Sessions:     make([]core.SessionDTO, 0, len(r.sessions)),
	}
	for _, e := range r.participantsLocked() {
		snap.Participants = append(snap.Participants, e.Number)
	}
	for sid, e := range r.sessions {
		snap.Sessions = append(snap.Sessions, core.SessionDTO{
			ID:          sid,
			Role:        e.Role,
			Number:      e.Number,
			RemoteAddr:  e.RemoteAddr,
			ConnectedAt: e.ConnectedAt,
		})
	}
	slices.SortFunc(snap.Sessions, func(a, b core.SessionDTO) int {
		return a.ConnectedAt.Compare(b.ConnectedAt)
	})
	return snap
}
