package retrievers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/medlexica/regagent/planner"
)

// NamespaceWeight is one weighted retrieval target for a persona. The
// weight scales match scores when results from several namespaces are
// merged.
type NamespaceWeight struct {
	Namespace string  `yaml:"namespace"`
	Weight    float64 `yaml:"weight"`
}

// NamespaceMap routes a persona to the corpus namespaces it should search.
// Unknown personas fall back to the "default" entry.
type NamespaceMap map[string][]NamespaceWeight

// DefaultNamespaceMap mirrors the shipped persona routing configuration.
func DefaultNamespaceMap() NamespaceMap {
	return NamespaceMap{
		string(planner.PersonaClinicalAnalyst): {
			{Namespace: "pbac-clinical", Weight: 1.0},
			{Namespace: "pbac-general", Weight: 0.6},
		},
		string(planner.PersonaHealthEconomist): {
			{Namespace: "pbac-economic", Weight: 1.0},
			{Namespace: "pbac-general", Weight: 0.6},
		},
		string(planner.PersonaRegulatorySpecialist): {
			{Namespace: "pbac-regulatory", Weight: 1.0},
			{Namespace: "pbac-general", Weight: 0.6},
		},
		"default": {
			{Namespace: "pbac-general", Weight: 1.0},
		},
	}
}

// LoadNamespaceMap reads a persona routing map from a YAML file.
func LoadNamespaceMap(path string) (NamespaceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read namespace map: %w", err)
	}
	var m NamespaceMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse namespace map: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("namespace map %s is empty", path)
	}
	return m, nil
}

// Plan returns the weighted namespaces for a persona, falling back to the
// default entry when the persona has no specific routing.
func (m NamespaceMap) Plan(persona planner.Persona) []NamespaceWeight {
	if plan, ok := m[string(persona)]; ok {
		return plan
	}
	return m["default"]
}
