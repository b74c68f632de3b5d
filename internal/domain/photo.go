package domain

import "time"

// Photo is one capture submitted by a participant. Data is opaque and
// never inspected by the relay.
type Photo struct {
	Number     ParticipantID `json:"number"`
	Count      int           `json:"pictureCount"`
	Data       string        `json:"-"`
	Included   bool          `json:"included"`
	ReceivedAt time.Time     `json:"receivedAt"`
}

// PhotoMeta is the read-only view of a Photo without its payload.
type PhotoMeta struct {
	Number     ParticipantID `json:"number"`
	Count      int           `json:"pictureCount"`
	Size       int           `json:"size"`
	Included   bool          `json:"included"`
	ReceivedAt time.Time     `json:"receivedAt"`
}

func (p *Photo) Meta() PhotoMeta {
	return PhotoMeta{
		Number:     p.Number,
		Count:      p.Count,
		Size:       len(p.Data),
		Included:   p.Included,
		ReceivedAt: p.ReceivedAt,
	}
}
