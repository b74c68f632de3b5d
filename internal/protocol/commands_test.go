package protocol

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/stagehand/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	five := 5
	tests := []struct {
		name string
		raw  string
		want Command
	}{
		{name: "register bare number", raw: `{"event":"register-client-a","data":7}`, want: RegisterParticipant{Number: 7}},
		{name: "register string", raw: `{"event":"register-client-a","data":"12"}`, want: RegisterParticipant{Number: 12}},
		{name: "register object", raw: `{"event":"register-client-a","data":{"identity":3}}`, want: RegisterParticipant{Number: 3}},
		{name: "register out of range", raw: `{"event":"register-client-a","data":45}`, want: RegisterParticipant{Number: 45}},
		{name: "director", raw: `{"event":"register-control-client"}`, want: RegisterDirector{}},
		{name: "narrator", raw: `{"event":"register-client-navi"}`, want: RegisterNarrator{}},
		{name: "start navi", raw: `{"event":"control-start-navi","data":{"mode":"intro","count":5}}`, want: StartNavi{Mode: "intro", Raw: json.RawMessage(`{"mode":"intro","count":5}`)}},
		{name: "start navi bare", raw: `{"event":"control-start-navi"}`, want: StartNavi{}},
		{name: "sound", raw: `{"event":"control-sound","data":{"mode":"on"}}`, want: Sound{Mode: "on", Raw: json.RawMessage(`{"mode":"on"}`)}},
		{name: "color all", raw: `{"event":"control-change-color","data":{"target":"ALL","color":"red"}}`, want: ChangeColor{Target: Target{All: true}, Color: "red"}},
		{name: "color one", raw: `{"event":"control-change-color","data":{"target":"3","color":"blue"}}`, want: ChangeColor{Target: Target{Number: 3}, Color: "blue"}},
		{name: "audio numeric target", raw: `{"event":"control-play-audio","data":{"target":4}}`, want: PlayAudio{Target: Target{Number: 4}}},
		{name: "volume", raw: `{"event":"control-set-volume","data":{"volume":0.4}}`, want: SetVolume{Volume: 0.4}},
		{name: "shooting", raw: `{"event":"control-start-shooting","data":{"count":3}}`, want: StartShooting{Count: 3}},
		{name: "photo", raw: `{"event":"photo-to-server","data":{"photoData":"data:x","pictureCount":5}}`, want: SubmitPhoto{PhotoData: "data:x", PictureCount: &five}},
		{name: "show images list", raw: `{"event":"control-showImages","data":{"photoData":["a","b"]}}`, want: ShowImages{Photos: []string{"a", "b"}}},
		{name: "show images bare", raw: `{"event":"control-showImages"}`, want: ShowImages{}},
		{name: "navi status", raw: `{"event":"information-navi-status","data":{"status":"done"}}`, want: NaviStatus{Status: "done", Raw: json.RawMessage(`{"status":"done"}`)}},
		{name: "toggle", raw: `{"event":"control-toggle-photo","data":{"number":"2","pictureCount":1,"include":false}}`, want: TogglePhoto{Number: 2, PictureCount: 1}},
		{name: "reset", raw: `{"event":"control-reset-photos"}`, want: ResetPhotos{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeKeepsPassThroughPayload(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantMode string
		wantData string
	}{
		{name: "extra fields and null count", raw: `{"event":"control-start-navi","data":{"mode":"search","count":null,"extra":1}}`, wantMode: "search", wantData: `{"mode":"search","count":null,"extra":1}`},
		{name: "numeric mode", raw: `{"event":"control-start-navi","data":{"mode":2}}`, wantMode: "2", wantData: `{"mode":2}`},
		{name: "non object", raw: `{"event":"control-start-navi","data":"intro"}`, wantData: `"intro"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			c, ok := cmd.(StartNavi)
			require.True(t, ok)
			assert.Equal(t, tt.wantMode, c.Mode)
			assert.JSONEq(t, tt.wantData, string(c.Raw))
		})
	}
	assert.Nil(t, Payload(nil))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "not json", raw: `hello`, wantErr: ErrBadPayload},
		{name: "unknown event", raw: `{"event":"make-coffee"}`, wantErr: ErrUnknownEvent},
		{name: "missing data", raw: `{"event":"control-change-color"}`, wantErr: ErrBadPayload},
		{name: "bad target", raw: `{"event":"control-change-color","data":{"target":"everyone","color":"red"}}`, wantErr: ErrBadPayload},
		{name: "register without id", raw: `{"event":"register-client-a","data":{}}`, wantErr: ErrBadPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncode(t *testing.T) {
	frame, err := Encode(OutClientList, []domain.ParticipantID{1, 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"update-client-list","data":[1,3]}`, string(frame))

	frame, err = Encode(OutStopAudio, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"command-stop-audio"}`, string(frame))

	n := domain.ParticipantID(4)
	frame, err = Encode(OutPlayAudio, PlayAudioOut{Type: AudioSpecific, Number: &n})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"command-play-audio","data":{"type":"specific","number":4}}`, string(frame))

	_, err = Encode("bad", json.RawMessage("{"))
	assert.Error(t, err)
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "all", Target{All: true}.String())
	assert.Equal(t, "7", Target{Number: 7}.String())
}
