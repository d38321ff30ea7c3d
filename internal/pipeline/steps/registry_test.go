package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRegistry(t *testing.T) {
	// Verify all expected steps are in the registry
	expectedSteps := []string{
		Load, Build, Enrich, ExportJSON, Validate,
		Workbook, UniqueIDs, Store, Images, Manifest,
	}

	orders := map[int]bool{}
	for _, stepName := range expectedSteps {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
		assert.False(t, orders[def.Order], "order %d used twice", def.Order)
		orders[def.Order] = true
	}
	assert.Len(t, StepRegistry, len(expectedSteps))
}

func TestStepRegistry_DependenciesRunEarlier(t *testing.T) {
	for name, def := range StepRegistry {
		for _, dep := range append(append([]string{}, def.Dependencies...), def.Optional...) {
			depDef, ok := StepRegistry[dep]
			require.True(t, ok, "%s depends on unknown step %s", name, dep)
			assert.Less(t, depDef.Order, def.Order, "%s must run after %s", name, dep)
		}
	}
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Equal(t, "test_step", err.Step)
	assert.Equal(t, []string{"dep1", "dep2"}, err.MissingDependencies)
}

func TestValidateDependencies(t *testing.T) {
	err := ValidateDependencies("unknown_step", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")

	assert.NoError(t, ValidateDependencies(Load, nil))

	err = ValidateDependencies(Validate, map[string]bool{Load: true, Build: true})
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{ExportJSON}, depErr.MissingDependencies)

	assert.NoError(t, ValidateDependencies(Validate, map[string]bool{ExportJSON: true}))
}

func TestPlan(t *testing.T) {
	plan, err := Plan(map[string]bool{
		Manifest: true, Load: true, ExportJSON: true, Build: true, Images: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{Load, Build, ExportJSON, Images, Manifest}, Names(plan))
}

func TestPlan_MissingDependency(t *testing.T) {
	_, err := Plan(map[string]bool{Load: true, Validate: true})

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, Validate, depErr.Step)
}
