package app

import (
	"sync"
	"testing"

	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (s *nopSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return nil
}

func (s *nopSignal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func bind(r *Registry, sid domain.ConnID) *nopSignal {
	sig := &nopSignal{}
	r.Bind(sid, sig, "10.0.0.1")
	return sig
}

func sortIDs(a, b domain.ParticipantID) bool { return a < b }

func TestRegistryParticipantsMultiset(t *testing.T) {
	r := NewRegistry()
	for _, sid := range []domain.ConnID{"a", "b", "c", "d"} {
		bind(r, sid)
	}
	r.SetParticipant("a", 3)
	r.SetParticipant("b", 1)
	r.SetParticipant("c", 3)

	got := r.Participants()
	assert.Equal(t, []domain.ParticipantID{3, 1, 3}, got, "registration order, duplicates kept")

	r.Unbind("c")
	want := []domain.ParticipantID{1, 3}
	if diff := cmp.Diff(want, r.Participants(), cmpopts.SortSlices(sortIDs)); diff != "" {
		t.Errorf("participants mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryReRegisterKeepsPosition(t *testing.T) {
	r := NewRegistry()
	bind(r, "a")
	bind(r, "b")
	r.SetParticipant("a", 5)
	r.SetParticipant("b", 6)

	prev, ok := r.SetParticipant("a", 9)
	require.True(t, ok)
	assert.Equal(t, domain.RoleParticipant, prev)
	assert.Equal(t, []domain.ParticipantID{9, 6}, r.Participants())
}

func TestRegistryFindParticipantEarliest(t *testing.T) {
	r := NewRegistry()
	first := bind(r, "first")
	bind(r, "second")
	r.SetParticipant("first", 4)
	r.SetParticipant("second", 4)

	tgt, ok := r.FindParticipant(4)
	require.True(t, ok)
	assert.Equal(t, domain.ConnID("first"), tgt.SID)
	assert.Same(t, first, tgt.Signal)

	_, ok = r.FindParticipant(8)
	assert.False(t, ok)
}

func TestRegistryDirectorSlot(t *testing.T) {
	r := NewRegistry()
	bind(r, "d1")
	bind(r, "d2")

	_, ok := r.Director()
	assert.False(t, ok)

	r.SetDirector("d1")
	tgt, ok := r.Director()
	require.True(t, ok)
	assert.Equal(t, domain.ConnID("d1"), tgt.SID)

	r.SetDirector("d2")
	tgt, _ = r.Director()
	assert.Equal(t, domain.ConnID("d2"), tgt.SID)
	assert.Equal(t, domain.RoleUnassigned, r.RoleOf("d1"))

	// The displaced console leaving must not clear the slot.
	d := r.Unbind("d1")
	assert.False(t, d.WasDirector)
	_, ok = r.Director()
	assert.True(t, ok)

	d = r.Unbind("d2")
	assert.True(t, d.WasDirector)
	_, ok = r.Director()
	assert.False(t, ok)
}

func TestRegistryRoleSwitch(t *testing.T) {
	r := NewRegistry()
	bind(r, "x")
	r.SetNarrator("x")
	r.SetParticipant("x", 2)

	_, ok := r.Narrator()
	assert.False(t, ok, "switching to participant releases the narrator slot")
	assert.Equal(t, []domain.ParticipantID{2}, r.Participants())

	prev, _ := r.SetDirector("x")
	assert.Equal(t, domain.RoleParticipant, prev)
	assert.Empty(t, r.Participants())
	_, ok = r.ParticipantOf("x")
	assert.False(t, ok)
}

func TestRegistryUnknownConnection(t *testing.T) {
	r := NewRegistry()
	_, ok := r.SetParticipant("ghost", 1)
	assert.False(t, ok)
	_, ok = r.SetDirector("ghost")
	assert.False(t, ok)
	assert.False(t, r.Unbind("ghost").Known)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	bind(r, "a")
	bind(r, "b")
	r.SetParticipant("a", 1)
	r.SetDirector("b")

	snap := r.Snapshot()
	assert.Equal(t, domain.ConnID("b"), snap.Director)
	assert.Empty(t, snap.Narrator)
	assert.Equal(t, []domain.ParticipantID{1}, snap.Participants)
	assert.Len(t, snap.Sessions, 2)
	assert.Equal(t, 2, r.Len())
	assert.Len(t, r.All(), 2)
}

func TestRegistryNarratorUnbind(t *testing.T) {
	r := NewRegistry()
	bind(r, "navi")
	r.SetNarrator("navi")
	_, ok := r.Narrator()
	require.True(t, ok)

	d := r.Unbind("navi")
	assert.True(t, d.WasNarrator)
	assert.Equal(t, domain.RoleNarrator, d.Role)
	_, ok = r.Narrator()
	assert.False(t, ok)
}
