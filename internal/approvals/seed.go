package approvals

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

type seedFile struct {
	Workflows []seedWorkflow `yaml:"workflows"`
}

type seedWorkflow struct {
	Name           string `yaml:"name"`
	Module         string `yaml:"module"`
	ThresholdCents int64  `yaml:"thresholdCents"`
	Enabled        bool   `yaml:"enabled"`
	Steps          []Step `yaml:"steps"`
}

// DefaultWorkflows parses the embedded seed templates into workflow inputs.
func DefaultWorkflows() ([]WorkflowInput, error) {
	var file seedFile
	if err := yaml.Unmarshal(templatesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse workflow templates: %w", err)
	}
	inputs := make([]WorkflowInput, 0, len(file.Workflows))
	for _, w := range file.Workflows {
		inputs = append(inputs, WorkflowInput{
			Name:           w.Name,
			Module:         w.Module,
			ThresholdCents: w.ThresholdCents,
			Steps:          w.Steps,
			Enabled:        w.Enabled,
		})
	}
	return inputs, nil
}
