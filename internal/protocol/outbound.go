package protocol

import "github.com/dkeye/stagehand/internal/domain"

const (
	AudioBGM      = "bgm"
	AudioSpecific = "specific"
)

type PlayAudioOut struct {
	Type   string                `json:"type"`
	Time   *int64                `json:"time,omitempty"`
	Number *domain.ParticipantID `json:"number,omitempty"`
}

type StartShootingOut struct {
	Count int `json:"count"`
}

type PhotoFromClient struct {
	Number       domain.ParticipantID `json:"number"`
	PhotoData    string               `json:"photoData"`
	PictureCount *int                 `json:"pictureCount,omitempty"`
}

type ShowImagesOut struct {
	Photos []string `json:"photos"`
}
