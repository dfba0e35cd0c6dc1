package topology

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// EndpointSeparator splits the router ID from the interface name.
const EndpointSeparator = ":"

var (
	// ErrMissingTopologyData is returned when the document has no links section.
	ErrMissingTopologyData = errors.New("missing topology data")

	// ErrInvalidEndpoint is returned for an endpoint not of the form "router:interface".
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidLink is returned for a link that does not have exactly two endpoints.
	ErrInvalidLink = errors.New("invalid link")

	// ErrSelfLoop is returned for a link whose endpoints are on the same router.
	ErrSelfLoop = errors.New("link connects a router to itself")

	// ErrDuplicateEndpoint is returned when an interface is used by more than one link.
	ErrDuplicateEndpoint = errors.New("endpoint used by more than one link")
)

// Endpoint is one side of a link.
type Endpoint struct {
	Router    string
	Interface string
}

// ParseEndpoint parses "router:interface".
func ParseEndpoint(s string) (Endpoint, error) {
	parts := strings.Split(s, EndpointSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Endpoint{}, fmt.Errorf("%w: %q (want router%sinterface)", ErrInvalidEndpoint, s, EndpointSeparator)
	}
	return Endpoint{Router: parts[0], Interface: parts[1]}, nil
}

func (e Endpoint) String() string {
	return e.Router + EndpointSeparator + e.Interface
}

// Link is a point-to-point connection. A is the first endpoint as listed
// in the topology document.
type Link struct {
	A Endpoint
	B Endpoint
}

// Endpoints returns both endpoints in document order.
func (l Link) Endpoints() [2]Endpoint {
	return [2]Endpoint{l.A, l.B}
}

// RouterInfo describes a router's role.
type RouterInfo struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// linkSpec is the document form of a link.
type linkSpec struct {
	Endpoints []string `yaml:"endpoints"`
}

// document is the on-disk topology description.
type document struct {
	Links   *[]linkSpec  `yaml:"links"`
	Routers []RouterInfo `yaml:"routers"`
}

// Description is a validated topology.
type Description struct {
	Links   []Link
	Routers []RouterInfo
}

// Load reads and validates a topology document from path.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON topology document and validates it.
func Parse(data []byte) (*Description, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingTopologyData, err)
	}
	if doc.Links == nil {
		return nil, fmt.Errorf("%w: no 'links' section found", ErrMissingTopologyData)
	}

	desc := &Description{Routers: doc.Routers}
	seen := make(map[Endpoint]int)
	for i, ls := range *doc.Links {
		if len(ls.Endpoints) != 2 {
			return nil, fmt.Errorf("%w: link %d has %d endpoints, want 2", ErrInvalidLink, i, len(ls.Endpoints))
		}

		a, err := ParseEndpoint(ls.Endpoints[0])
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		b, err := ParseEndpoint(ls.Endpoints[1])
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		if a.Router == b.Router {
			return nil, fmt.Errorf("%w: link %d (%s, %s)", ErrSelfLoop, i, a, b)
		}

		for _, ep := range []Endpoint{a, b} {
			if prev, ok := seen[ep]; ok {
				return nil, fmt.Errorf("%w: %s in links %d and %d", ErrDuplicateEndpoint, ep, prev, i)
			}
			seen[ep] = i
		}

		desc.Links = append(desc.Links, Link{A: a, B: b})
	}

	return desc, nil
}

// Role returns the type of router id, or "" if the document does not
// describe it.
func (d *Description) Role(id string) string {
	for _, r := range d.Routers {
		if r.ID == id {
			return r.Type
		}
	}
	return ""
}
