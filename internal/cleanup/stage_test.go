package cleanup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	st, err := ParseStage(" c ")
	require.NoError(t, err)
	assert.Equal(t, StageQuality, st)

	_, err = ParseStage("E")
	assert.True(t, errors.Is(err, ErrUnknownStage))
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		only, from string
		want       []Stage
		wantErr    error
	}{
		{name: "all", want: AllStages},
		{name: "only B", only: "B", want: []Stage{StageNear}},
		{name: "from C", from: "C", want: []Stage{StageQuality, StageLabels}},
		{name: "from A", from: "a", want: AllStages},
		{name: "both", only: "A", from: "B", wantErr: ErrConflictingStageFlags},
		{name: "bad only", only: "Z", wantErr: ErrUnknownStage},
		{name: "bad from", from: "0", wantErr: ErrUnknownStage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.only, tt.from)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_ReturnsCopy(t *testing.T) {
	plan, err := Plan("", "")
	require.NoError(t, err)
	plan[0] = StageLabels
	assert.Equal(t, StageExact, AllStages[0])
}

func TestNeedsScan(t *testing.T) {
	assert.False(t, needsScan([]Stage{StageLabels}))
	assert.True(t, needsScan([]Stage{StageQuality, StageLabels}))
	assert.False(t, needsFingerprints([]Stage{StageQuality}))
	assert.True(t, needsFingerprints([]Stage{StageNear}))
}
