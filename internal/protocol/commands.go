package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/stagehand/internal/domain"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("bad payload")
)

// Command is one decoded inbound message. The concrete types below are
// the full command surface; the orchestrator switches over them.
type Command interface {
	Event() string
}

type (
	RegisterParticipant struct{ Number domain.ParticipantID }
	RegisterDirector    struct{}
	RegisterNarrator    struct{}

	// StartNavi, Sound and NaviStatus are relayed verbatim. Mode and
	// Status are read for logging only.
	StartNavi struct {
		Mode string
		Raw  json.RawMessage
	}
	TrueOrFalse struct{}
	Sound       struct {
		Mode string
		Raw  json.RawMessage
	}
	ChangeColor struct {
		Target Target `json:"target"`
		Color  string `json:"color"`
	}
	ShowNumber struct{}
	PlayAudio  struct {
		Target Target `json:"target"`
		Time   *int64 `json:"time,omitempty"`
	}
	SetVolume struct {
		Volume float64 `json:"volume"`
	}
	StopAudio     struct{}
	StartShooting struct {
		Count int `json:"count"`
	}
	StopShooting struct{}

	SubmitPhoto struct {
		PhotoData    string `json:"photoData"`
		PictureCount *int   `json:"pictureCount,omitempty"`
	}
	// ShowImages carries the list the director picked. Photos is nil when
	// the director sent no list and the server should reveal its own.
	ShowImages struct {
		Photos []string `json:"photoData"`
	}
	NaviStatus struct {
		Status string
		Raw    json.RawMessage
	}
	TogglePhoto struct {
		Number       LooseID `json:"number"`
		PictureCount int     `json:"pictureCount"`
		Include      bool    `json:"include"`
	}
	ResetPhotos struct{}
)

func (RegisterParticipant) Event() string { return EvRegisterParticipant }
func (RegisterDirector) Event() string    { return EvRegisterDirector }
func (RegisterNarrator) Event() string    { return EvRegisterNarrator }
func (StartNavi) Event() string           { return EvStartNavi }
func (TrueOrFalse) Event() string         { return EvTrueOrFalse }
func (Sound) Event() string               { return EvSound }
func (ChangeColor) Event() string         { return EvChangeColor }
func (ShowNumber) Event() string          { return EvShowNumber }
func (PlayAudio) Event() string           { return EvPlayAudio }
func (SetVolume) Event() string           { return EvSetVolume }
func (StopAudio) Event() string           { return EvStopAudio }
func (StartShooting) Event() string       { return EvStartShooting }
func (StopShooting) Event() string        { return EvStopShooting }
func (SubmitPhoto) Event() string         { return EvPhotoToServer }
func (ShowImages) Event() string          { return EvShowImages }
func (NaviStatus) Event() string          { return EvNaviStatus }
func (TogglePhoto) Event() string         { return EvTogglePhoto }
func (ResetPhotos) Event() string         { return EvResetPhotos }

// LooseID is a participant id sent either as a JSON number or a string.
type LooseID domain.ParticipantID

func (l *LooseID) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	id, err := domain.ParseParticipantID(s)
	if err != nil {
		return err
	}
	*l = LooseID(id)
	return nil
}

// Target is either every participant or one numbered participant.
type Target struct {
	All    bool
	Number domain.ParticipantID
}

func (t *Target) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(s), TargetAll) {
			*t = Target{All: true}
			return nil
		}
	}
	var id LooseID
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	*t = Target{Number: domain.ParticipantID(id)}
	return nil
}

func (t Target) String() string {
	if t.All {
		return TargetAll
	}
	return fmt.Sprint(int(t.Number))
}

// Decode parses one inbound frame into a Command.
func Decode(raw []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return DecodeEnvelope(env)
}

func DecodeEnvelope(env Envelope) (Command, error) {
	switch env.Event {
	case EvRegisterParticipant:
		n, err := decodeRegistration(env.Data)
		if err != nil {
			return nil, err
		}
		return RegisterParticipant{Number: n}, nil
	case EvRegisterDirector:
		return RegisterDirector{}, nil
	case EvRegisterNarrator:
		return RegisterNarrator{}, nil
	case EvStartNavi:
		raw, mode := passThrough(env.Data, "mode")
		return StartNavi{Mode: mode, Raw: raw}, nil
	case EvTrueOrFalse:
		return TrueOrFalse{}, nil
	case EvSound:
		raw, mode := passThrough(env.Data, "mode")
		return Sound{Mode: mode, Raw: raw}, nil
	case EvChangeColor:
		return decodeInto[ChangeColor](env)
	case EvShowNumber:
		return ShowNumber{}, nil
	case EvPlayAudio:
		return decodeInto[PlayAudio](env)
	case EvSetVolume:
		return decodeInto[SetVolume](env)
	case EvStopAudio:
		return StopAudio{}, nil
	case EvStartShooting:
		return decodeInto[StartShooting](env)
	case EvStopShooting:
		return StopShooting{}, nil
	case EvPhotoToServer:
		return decodeInto[SubmitPhoto](env)
	case EvShowImages:
		if isEmpty(env.Data) {
			return ShowImages{}, nil
		}
		return decodeInto[ShowImages](env)
	case EvNaviStatus:
		raw, status := passThrough(env.Data, "status")
		return NaviStatus{Status: status, Raw: raw}, nil
	case EvTogglePhoto:
		return decodeInto[TogglePhoto](env)
	case EvResetPhotos:
		return ResetPhotos{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeInto[T Command](env Envelope) (Command, error) {
	var v T
	if isEmpty(env.Data) {
		return nil, fmt.Errorf("%w: %s: missing data", ErrBadPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Event, err)
	}
	return v, nil
}

// decodeRegistration accepts the bare number camera clients send as well
// as {"identity": n} / {"number": n}.
func decodeRegistration(data json.RawMessage) (domain.ParticipantID, error) {
	if isEmpty(data) {
		return 0, fmt.Errorf("%w: %s: missing identity", ErrBadPayload, EvRegisterParticipant)
	}
	if data[0] == '{' {
		var obj struct {
			Identity *LooseID `json:"identity"`
			Number   *LooseID `json:"number"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrBadPayload, EvRegisterParticipant, err)
		}
		switch {
		case obj.Identity != nil:
			return domain.ParticipantID(*obj.Identity), nil
		case obj.Number != nil:
			return domain.ParticipantID(*obj.Number), nil
		}
		return 0, fmt.Errorf("%w: %s: missing identity", ErrBadPayload, EvRegisterParticipant)
	}
	var id LooseID
	if err := id.UnmarshalJSON(data); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadPayload, EvRegisterParticipant, err)
	}
	return domain.ParticipantID(id), nil
}

// passThrough keeps data as sent and pulls one string field out of it
// when present. Missing data yields a nil payload.
func passThrough(data json.RawMessage, field string) (json.RawMessage, string) {
	if isEmpty(data) {
		return nil, ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return data, ""
	}
	var s string
	if err := json.Unmarshal(obj[field], &s); err != nil {
		return data, string(bytes.TrimSpace(obj[field]))
	}
	return data, s
}

// Payload turns an optional raw payload into Encode's data argument.
func Payload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func isEmpty(data json.RawMessage) bool {
	d := bytes.TrimSpace(data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}
