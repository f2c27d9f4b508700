package pipeline

import (
	"fmt"
	"sync"
)

// Stage names, used in errors, logs and metrics.
const (
	StageLoadedLanguage = "loaded_language"
	StageStakeholders   = "stakeholders"
	StageEquityConcerns = "equity_concerns"
	StageObjectiveFacts = "objective_facts"
	StageNeutralSummary = "neutral_summary"
)

// StageDefinition defines metadata for a pipeline stage
type StageDefinition struct {
	Name         string
	Dependencies []string
	// UsesModel marks stages that call the generative model.
	UsesModel bool
}

// StageRegistry holds all stage definitions
var StageRegistry = map[string]StageDefinition{
	StageLoadedLanguage: {
		Name:         StageLoadedLanguage,
		Dependencies: []string{},
	},
	StageStakeholders: {
		Name:         StageStakeholders,
		Dependencies: []string{},
	},
	StageEquityConcerns: {
		Name:         StageEquityConcerns,
		Dependencies: []string{StageStakeholders},
		UsesModel:    true,
	},
	StageObjectiveFacts: {
		Name:         StageObjectiveFacts,
		Dependencies: []string{},
		UsesModel:    true,
	},
	StageNeutralSummary: {
		Name:         StageNeutralSummary,
		Dependencies: []string{StageObjectiveFacts},
		UsesModel:    true,
	},
}

// StageOrder lists stages in report order.
var StageOrder = []string{
	StageLoadedLanguage,
	StageStakeholders,
	StageEquityConcerns,
	StageObjectiveFacts,
	StageNeutralSummary,
}

// DependencyError represents a stage started before its inputs were ready
type DependencyError struct {
	Stage   string
	Missing []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s cannot run: missing dependencies %v", e.Stage, e.Missing)
}

// tracker records completed stages for one analysis.
type tracker struct {
	mu   sync.Mutex
	done map[string]bool
}

func newTracker() *tracker {
	return &tracker{done: make(map[string]bool, len(StageRegistry))}
}

// ready checks that every dependency of stage has completed.
func (t *tracker) ready(stage string) error {
	def, ok := StageRegistry[stage]
	if !ok {
		return fmt.Errorf("unknown stage: %s", stage)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var missing []string
	for _, dep := range def.Dependencies {
		if !t.done[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Stage: stage, Missing: missing}
	}
	return nil
}

func (t *tracker) complete(stage string) {
	t.mu.Lock()
	t.done[stage] = true
	t.mu.Unlock()
}
