package clab

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/zinrai/frr-clab/internal/topology"
)

const (
	// DefaultImage is the container image used for all routers.
	DefaultImage = "frrouting/frr:v7.5.1"

	// DefaultKind is the containerlab node kind.
	DefaultKind = "linux"

	// DefaultLabName is the lab name when none is given.
	DefaultLabName = "lab_example"
)

// Spec represents the containerlab topology file.
type Spec struct {
	Name     string       `yaml:"name"`
	Topology TopologySpec `yaml:"topology"`
}

// TopologySpec holds nodes keyed by name, in insertion order, and links.
type TopologySpec struct {
	Nodes yaml.MapSlice `yaml:"nodes"`
	Links []Link        `yaml:"links"`
}

// Node represents a containerlab node.
type Node struct {
	Kind   string            `yaml:"kind"`
	Image  string            `yaml:"image"`
	Binds  []string          `yaml:"binds"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Link represents a containerlab link.
type Link struct {
	Endpoints []string `yaml:"endpoints,flow"`
}

// Builder collects nodes and links in insertion order.
type Builder struct {
	name  string
	nodes yaml.MapSlice
	links []Link
}

// NewBuilder creates a builder for the named lab.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddNode adds a node. Nodes are serialized in the order they are added.
func (b *Builder) AddNode(name string, node Node) {
	b.nodes = append(b.nodes, yaml.MapItem{Key: name, Value: node})
}

// AddLink adds a link between two endpoints.
func (b *Builder) AddLink(link topology.Link) {
	var endpoints []string
	for _, ep := range link.Endpoints() {
		endpoints = append(endpoints, ep.String())
	}
	b.links = append(b.links, Link{Endpoints: endpoints})
}

// Build returns the collected topology.
func (b *Builder) Build() Spec {
	return Spec{
		Name: b.name,
		Topology: TopologySpec{
			Nodes: b.nodes,
			Links: b.links,
		},
	}
}

// FileName returns the topology file name of the lab.
func (s Spec) FileName() string {
	return s.Name + ".clab.yml"
}

// Marshal serializes the topology file to YAML.
func (s Spec) Marshal() ([]byte, error) {
	return yaml.MarshalWithOptions(s, yaml.IndentSequence(true))
}

// Write writes the topology file into dir and returns the file path.
func (s Spec) Write(dir string) (string, error) {
	data, err := s.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal topology: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, s.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
