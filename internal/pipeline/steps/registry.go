// Package steps provides step definitions and dependency validation for the export
// pipeline.
package steps

import (
	"fmt"
	"sort"
)

// Step categories
const (
	CategorySource    = "source"
	CategoryTransform = "transform"
	CategoryExport    = "export"
	CategorySink      = "sink"
)

// Step names
const (
	Load       = "load_spreadsheet"
	Build      = "build_records"
	Enrich     = "enrich_records"
	ExportJSON = "export_json"
	Validate   = "validate_exports"
	Workbook   = "write_workbook"
	UniqueIDs  = "write_unique_ids"
	Store      = "store_records"
	Images     = "download_images"
	Manifest   = "write_manifest"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Order        int
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	Load: {
		Name:     Load,
		Category: CategorySource,
		Order:    1,
	},
	Build: {
		Name:         Build,
		Category:     CategoryTransform,
		Order:        2,
		Dependencies: []string{Load},
	},
	Enrich: {
		Name:         Enrich,
		Category:     CategoryTransform,
		Order:        3,
		Dependencies: []string{Build},
	},
	ExportJSON: {
		Name:         ExportJSON,
		Category:     CategoryExport,
		Order:        4,
		Dependencies: []string{Build},
		Optional:     []string{Enrich},
	},
	Validate: {
		Name:         Validate,
		Category:     CategoryExport,
		Order:        5,
		Dependencies: []string{ExportJSON},
	},
	Workbook: {
		Name:         Workbook,
		Category:     CategoryExport,
		Order:        6,
		Dependencies: []string{Build},
		Optional:     []string{Enrich},
	},
	UniqueIDs: {
		Name:         UniqueIDs,
		Category:     CategoryExport,
		Order:        7,
		Dependencies: []string{Build},
	},
	Store: {
		Name:         Store,
		Category:     CategorySink,
		Order:        8,
		Dependencies: []string{Build},
		Optional:     []string{Enrich},
	},
	Images: {
		Name:         Images,
		Category:     CategorySink,
		Order:        9,
		Dependencies: []string{Build},
	},
	Manifest: {
		Name:         Manifest,
		Category:     CategoryExport,
		Order:        10,
		Dependencies: []string{ExportJSON},
		Optional:     []string{Workbook, UniqueIDs, Images},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(stepName string, completed map[string]bool) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// Plan returns the enabled steps in execution order. Steps not in enabled are
// skipped; an enabled step whose dependencies are not enabled is an error.
func Plan(enabled map[string]bool) ([]StepDefinition, error) {
	var plan []StepDefinition
	for name, def := range StepRegistry {
		if !enabled[name] {
			continue
		}
		for _, dep := range def.Dependencies {
			if !enabled[dep] {
				return nil, &DependencyError{Step: name, MissingDependencies: []string{dep}}
			}
		}
		plan = append(plan, def)
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Order < plan[j].Order })
	return plan, nil
}

// Names returns the step names of a plan.
func Names(plan []StepDefinition) []string {
	names := make([]string, len(plan))
	for i, def := range plan {
		names[i] = def.Name
	}
	return names
}
