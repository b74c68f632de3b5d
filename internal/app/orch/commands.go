package orch

import (
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Dispatch routes one decoded command. Roles are not checked: any
// connection may issue control commands.
func (o *Orchestrator) Dispatch(sid domain.ConnID, cmd protocol.Command) {
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Stringer("role", o.Registry.RoleOf(sid)).Str("event", cmd.Event()).Msg("dispatch")

	switch c := cmd.(type) {
	case protocol.RegisterParticipant:
		o.RegisterParticipant(sid, c.Number)
	case protocol.RegisterDirector:
		o.RegisterDirector(sid)
	case protocol.RegisterNarrator:
		o.RegisterNarrator(sid)

	case protocol.StartNavi:
		log.Info().Str("module", "orch").Str("mode", c.Mode).Msg("stage")
		o.BroadcastToAll(protocol.OutStartNavi, protocol.Payload(c.Raw))
	case protocol.TrueOrFalse:
		o.BroadcastToAll(protocol.OutTrueOrFalse, nil)
	case protocol.Sound:
		o.BroadcastToAll(protocol.OutSound, protocol.Payload(c.Raw))
	case protocol.ChangeColor:
		o.changeColor(c)
	case protocol.ShowNumber:
		o.showNumber()
	case protocol.PlayAudio:
		o.playAudio(c)
	case protocol.SetVolume:
		o.BroadcastToAll(protocol.OutSetVolume, c.Volume)
	case protocol.StopAudio:
		o.BroadcastToAll(protocol.OutStopAudio, nil)
	case protocol.StartShooting:
		o.startShooting(c)
	case protocol.StopShooting:
		o.BroadcastToAll(protocol.OutStopShooting, nil)

	case protocol.SubmitPhoto:
		o.SubmitPhoto(sid, c.PhotoData, c.PictureCount)
	case protocol.ShowImages:
		o.RevealSelection(c.Photos)
	case protocol.TogglePhoto:
		o.TogglePhoto(domain.ParticipantID(c.Number), c.PictureCount, c.Include)
	case protocol.ResetPhotos:
		o.ResetPhotos()

	case protocol.NaviStatus:
		log.Debug().Str("module", "orch").Str("status", c.Status).Msg("navi status")
		o.SendToDirector(protocol.OutNaviStatus, protocol.Payload(c.Raw))

	default:
		log.Warn().Str("module", "orch").Str("event", cmd.Event()).Msg("command without handler")
	}
}

func (o *Orchestrator) changeColor(c protocol.ChangeColor) {
	if c.Target.All {
		o.BroadcastToAll(protocol.OutChangeColor, c.Color)
		return
	}
	o.SendToParticipant(c.Target.Number, protocol.OutChangeColor, c.Color)
}

// showNumber tells every participant connection its own identity.
func (o *Orchestrator) showNumber() {
	for _, t := range o.Registry.ParticipantTargets() {
		frame, ok := o.encode(protocol.OutShowNumber, t.Number)
		if !ok {
			continue
		}
		o.deliver(protocol.OutShowNumber, frame, t)
	}
}

func (o *Orchestrator) playAudio(c protocol.PlayAudio) {
	if c.Target.All {
		o.BroadcastToAll(protocol.OutPlayAudio, protocol.PlayAudioOut{
			Type: protocol.AudioBGM,
			Time: c.Time,
		})
		return
	}
	n := c.Target.Number
	o.SendToParticipant(n, protocol.OutPlayAudio, protocol.PlayAudioOut{
		Type:   protocol.AudioSpecific,
		Number: &n,
	})
}

func (o *Orchestrator) startShooting(c protocol.StartShooting) {
	if o.Options.ResetPhotosOnShooting {
		o.ResetPhotos()
	}
	log.Info().Str("module", "orch").Int("count", c.Count).Msg("shooting round started")
	o.BroadcastToAll(protocol.OutStartShooting, protocol.StartShootingOut{Count: c.Count})
}
