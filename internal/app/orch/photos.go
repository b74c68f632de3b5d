package orch

import (
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/metrics"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/rs/zerolog/log"
)

// SubmitPhoto stores a capture under the sender's identity and forwards it
// to the director straight away. Senders without an identity are ignored.
func (o *Orchestrator) SubmitPhoto(sid domain.ConnID, data string, count *int) {
	n, ok := o.Registry.ParticipantOf(sid)
	if !ok {
		o.Metrics.Dropped.WithLabelValues(metrics.ReasonUnregistered).Inc()
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("photo from unregistered connection dropped")
		return
	}
	p := o.Photos.Put(n, count, data)
	o.Metrics.Photos.Set(float64(o.Photos.Len()))
	log.Info().Str("module", "orch").Int("number", int(n)).Int("count", p.Count).Int("size", len(data)).Msg("photo received")

	o.SendToDirector(protocol.OutPhotoFromUser, protocol.PhotoFromClient{
		Number:       n,
		PhotoData:    data,
		PictureCount: count,
	})
}

// RevealSelection broadcasts the photos to show. A nil list means the
// director sent none, in which case the server's own selection is used.
func (o *Orchestrator) RevealSelection(photos []string) {
	if photos == nil {
		photos = o.Photos.Selection()
	}
	log.Info().Str("module", "orch").Int("photos", len(photos)).Msg("reveal")
	o.BroadcastToAll(protocol.OutShowImages, protocol.ShowImagesOut{Photos: photos})
}

func (o *Orchestrator) TogglePhoto(n domain.ParticipantID, count int, include bool) {
	if !o.Photos.SetIncluded(n, count, include) {
		log.Debug().Str("module", "orch").Int("number", int(n)).Int("count", count).Msg("toggle on unknown photo")
	}
}

func (o *Orchestrator) ResetPhotos() {
	o.Photos.Reset()
	o.Metrics.Photos.Set(0)
}
