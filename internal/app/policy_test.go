package app

import (
	"testing"

	"github.com/dkeye/stagehand/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    BackpressureAction
		wantErr bool
	}{
		{name: "", want: DropFrame},
		{name: "drop", want: DropFrame},
		{name: "kick", want: KickMember},
		{name: "ignore", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolicyFromName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.OnBackPressure(core.Target{}))
		})
	}
}
