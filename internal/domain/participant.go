package domain

import (
	"errors"
	"strconv"
	"strings"
)

// Identities handed out to camera tablets. The range is advisory only;
// the registry accepts anything, duplicates included.
const (
	MinParticipantID = 1
	MaxParticipantID = 30
)

var ErrBadParticipantID = errors.New("bad participant id")

type ParticipantID int

// ParseParticipantID accepts the loose forms clients send: "3", " 3 ", "3.0".
func ParseParticipantID(s string) (ParticipantID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadParticipantID
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ParticipantID(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, ErrBadParticipantID
	}
	return ParticipantID(int(f)), nil
}

func (p ParticipantID) InRange() bool {
	return p >= MinParticipantID && p <= MaxParticipantID
}
