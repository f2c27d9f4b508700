package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRegistry(t *testing.T) {
	require.Len(t, StageRegistry, len(StageOrder))
	for _, name := range StageOrder {
		def, ok := StageRegistry[name]
		require.True(t, ok, "stage %s should be in registry", name)
		assert.Equal(t, name, def.Name)
		for _, dep := range def.Dependencies {
			_, ok := StageRegistry[dep]
			assert.True(t, ok, "dependency %s of %s should be registered", dep, name)
		}
	}
}

func TestStageRegistry_ModelStages(t *testing.T) {
	assert.False(t, StageRegistry[StageLoadedLanguage].UsesModel)
	assert.False(t, StageRegistry[StageStakeholders].UsesModel)
	assert.True(t, StageRegistry[StageEquityConcerns].UsesModel)
	assert.True(t, StageRegistry[StageObjectiveFacts].UsesModel)
	assert.True(t, StageRegistry[StageNeutralSummary].UsesModel)
}

func TestTracker(t *testing.T) {
	tr := newTracker()

	err := tr.ready(StageNeutralSummary)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, StageNeutralSummary, depErr.Stage)
	assert.Equal(t, []string{StageObjectiveFacts}, depErr.Missing)
	assert.Contains(t, err.Error(), "missing dependencies")

	require.NoError(t, tr.ready(StageObjectiveFacts))
	tr.complete(StageObjectiveFacts)
	assert.NoError(t, tr.ready(StageNeutralSummary))
}

func TestTracker_UnknownStage(t *testing.T) {
	err := newTracker().ready("unknown_stage")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestStageError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&StageError{Stage: StageEquityConcerns, Err: cause})

	assert.Equal(t, "equity_concerns stage failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StageEquityConcerns, FailedStage(err))
	assert.Equal(t, "", FailedStage(cause))
}
