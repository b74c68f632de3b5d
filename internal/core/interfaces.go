package core

import (
	"time"

	"github.com/dkeye/stagehand/internal/domain"
)

// Target is a resolved delivery endpoint.
type Target struct {
	SID    domain.ConnID
	Number domain.ParticipantID
	Signal SignalConnection
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []Target
}

// SessionDTO is a read-only view for APIs (no transport fields).
type SessionDTO struct {
	ID          domain.ConnID        `json:"id"`
	Role        domain.Role          `json:"role"`
	Number      domain.ParticipantID `json:"number,omitempty"`
	RemoteAddr  string               `json:"remoteAddr,omitempty"`
	ConnectedAt time.Time            `json:"connectedAt"`
}

type RegistrySnapshot struct {
	Director     domain.ConnID          `json:"director,omitempty"`
	Narrator     domain.ConnID          `json:"narrator,omitempty"`
	Participants []domain.ParticipantID `json:"participants"`
	Sessions     []SessionDTO           `json:"sessions"`
}
