package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepStringAndParse(t *testing.T) {
	for step := range knownSteps {
		parsed, err := ParseStep(step.String())
		require.NoError(t, err, step.String())
		assert.Equal(t, step, parsed)
	}

	parsed, err := ParseStep("idle")
	require.NoError(t, err)
	assert.True(t, parsed.IsIdle())

	_, err = ParseStep("applying:unknown")
	assert.Error(t, err)
	_, err = ParseStep("people")
	assert.Error(t, err)
}

func TestStepNamespacesDoNotCollide(t *testing.T) {
	assert.NotEqual(t, StepAwaitCity, StepAdminCity)
	assert.True(t, StepAdminCity.In(FlowAdminAdd))
	assert.False(t, StepAdminCity.In(FlowBrowse))
	assert.Equal(t, "admin_add:city", StepAdminCity.String())
	assert.Equal(t, "applying:people", StepPeople.String())
}

func TestStateJSONRoundTrip(t *testing.T) {
	st := State{Step: StepViewing, Fields: map[string]string{"people": "2"}}
	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"step":"applying:viewing"`)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, StepViewing, decoded.Step)
	assert.Equal(t, "2", decoded.Field("people"))
}
