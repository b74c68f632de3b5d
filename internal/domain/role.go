// Package domain contains entities without logic, just meta-data
package domain

import "github.com/google/uuid"

// ConnID identifies one live transport connection. It is assigned on
// connect and never reused.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

type Role int

const (
	RoleUnassigned Role = iota
	RoleParticipant
	RoleDirector
	RoleNarrator
)

func (r Role) String() string {
	switch r {
	case RoleParticipant:
		return "participant"
	case RoleDirector:
		return "director"
	case RoleNarrator:
		return "narrator"
	default:
		return "unassigned"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
