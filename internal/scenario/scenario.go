package scenario

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// ExpectedBehavior describes how the lab should behave without the fault.
type ExpectedBehavior struct {
	Config  string `yaml:"config"`
	Session string `yaml:"session"`
}

// Scenario is a BGP troubleshooting exercise. BGPConfig maps router IDs to
// raw FRR configuration text appended to that router's configuration.
type Scenario struct {
	Description          string            `yaml:"description"`
	ExpectedBehavior     ExpectedBehavior  `yaml:"expected_behavior"`
	BGPConfig            map[string]string `yaml:"bgp_config"`
	Symptoms             []string          `yaml:"symptoms"`
	TroubleshootingSteps []string          `yaml:"troubleshooting_steps"`
}

// Load loads a scenario from a YAML or JSON file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a scenario document. A document without a bgp_config
// section is rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if s.BGPConfig == nil {
		return nil, fmt.Errorf("scenario has no 'bgp_config' section")
	}
	return &s, nil
}

// PrintSummary writes the parts of the scenario meant for the student.
func (s *Scenario) PrintSummary(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# Scenario")
	if s.Description != "" {
		fmt.Fprintln(w, s.Description)
	}

	if len(s.Symptoms) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# Symptoms")
		for _, sym := range s.Symptoms {
			fmt.Fprintf(w, "- %s\n", sym)
		}
	}

	if len(s.TroubleshootingSteps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# Hints")
		for i, step := range s.TroubleshootingSteps {
			fmt.Fprintf(w, "%d. %s\n", i+1, step)
		}
	}
}
