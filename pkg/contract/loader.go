package contract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML mirror of a set of contracts, used by tooling that
// wants to lint a flow without compiling its node implementations.
//
//	slices: [request, response, _internal, diagnosis]
//	services: [kb_service]
//	nodes:
//	  - name: greeting
//	    supervisor: main
//	    reads: [request]
//	    writes: [response]
//	    trigger_conditions:
//	      - priority: 10
//	        when: {request.action: greet}
type Manifest struct {
	Slices   []string       `yaml:"slices,omitempty"`
	Services []string       `yaml:"services,omitempty"`
	Nodes    []NodeContract `yaml:"nodes"`
}

// LoadManifest parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, n := range m.Nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("manifest node %d: missing name", i)
		}
	}
	return &m, nil
}
