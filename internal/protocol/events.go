// Package protocol defines the message catalog exchanged with the camera,
// control and navi clients, and decodes inbound messages into commands.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/stagehand/internal/core"
)

// Inbound (client -> server).
const (
	EvRegisterParticipant = "register-client-a"
	EvRegisterDirector    = "register-control-client"
	EvRegisterNarrator    = "register-client-navi"
	EvStartNavi           = "control-start-navi"
	EvTrueOrFalse         = "control-TrueOrFalse"
	EvSound               = "control-sound"
	EvChangeColor         = "control-change-color"
	EvShowNumber          = "control-show-number"
	EvPlayAudio           = "control-play-audio"
	EvSetVolume           = "control-set-volume"
	EvStopAudio           = "control-stop-audio"
	EvStartShooting       = "control-start-shooting"
	EvStopShooting        = "control-stop-shooting"
	EvPhotoToServer       = "photo-to-server"
	EvShowImages          = "control-showImages"
	EvNaviStatus          = "information-navi-status"
	EvTogglePhoto         = "control-toggle-photo"
	EvResetPhotos         = "control-reset-photos"
)

// Outbound (server -> client).
const (
	OutClientList    = "update-client-list"
	OutStartNavi     = "command-start-navi"
	OutTrueOrFalse   = "command-TrueOrFalse"
	OutSound         = "command-sound"
	OutChangeColor   = "command-change-color"
	OutShowNumber    = "command-show-number"
	OutPlayAudio     = "command-play-audio"
	OutSetVolume     = "command-set-volume"
	OutStopAudio     = "command-stop-audio"
	OutStartShooting = "command-start-shooting"
	OutStopShooting  = "command-stop-shooting"
	OutPhotoFromUser = "photo-from-client"
	OutShowImages    = "command-showImages"
	OutNaviStatus    = "information-navi-status"
)

const TargetAll = "all"

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps data in an envelope. A nil data omits the field.
func Encode(event string, data any) (core.Frame, error) {
	env := Envelope{Event: event}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = b
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}
