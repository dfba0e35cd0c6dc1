package frr

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/zinrai/frr-clab/internal/addressing"
)

const (
	// DefaultOSPFArea is the area every router advertises its links in.
	DefaultOSPFArea = "0.0.0.0"

	// DefaultSupernetLen is the prefix length of the OSPF network statement.
	DefaultSupernetLen = 16
)

// ErrUnknownRouterReference is returned when protocol configuration and the
// addressed router set disagree.
var ErrUnknownRouterReference = errors.New("unknown router reference")

// Router is a router ID and its configuration lines, without trailing
// newlines. The last line may be a multi-line block of external text.
type Router struct {
	ID    string
	Lines []string
}

// prepend pushes line ahead of all existing lines.
func (r *Router) prepend(line string) {
	r.Lines = append([]string{line}, r.Lines...)
}

func (r *Router) add(lines ...string) {
	r.Lines = append(r.Lines, lines...)
}

// Assembler builds FRR configurations from an address assignment.
type Assembler struct {
	// Network is the OSPF network statement prefix.
	Network *net.IPNet
	// Area is the OSPF area ID.
	Area string
}

// NewAssembler returns an assembler advertising block's supernet of
// supernetLen bits in area.
func NewAssembler(block addressing.AddressBlock, supernetLen int, area string) *Assembler {
	if area == "" {
		area = DefaultOSPFArea
	}
	return &Assembler{
		Network: block.Supernet(supernetLen),
		Area:    area,
	}
}

// Assemble returns one Router per router of the assignment, in assignment
// order. The lines of each router are, in order: base lines, one interface
// block per fragment, the OSPF block and finally the router's entry in
// protocols verbatim.
//
// A nil protocols map skips the last phase. Otherwise protocols must have
// exactly one entry per router, and any mismatch is ErrUnknownRouterReference.
func (a *Assembler) Assemble(assignment *addressing.Assignment, protocols map[string]string) ([]*Router, error) {
	if protocols != nil {
		if err := checkProtocolRouters(assignment, protocols); err != nil {
			return nil, err
		}
	}

	var routers []*Router
	for _, id := range assignment.Routers() {
		r := &Router{ID: id}

		for _, f := range assignment.Fragments(id) {
			r.add(
				fmt.Sprintf("interface %s", f.Interface),
				fmt.Sprintf(" ip address %s", f.CIDR()),
			)
		}

		for _, line := range baseLines(id) {
			r.prepend(line)
		}

		r.add(
			"router ospf",
			fmt.Sprintf(" network %s area %s", a.Network, a.Area),
			"line vty",
		)

		if protocols != nil {
			r.add(protocols[id])
		}

		routers = append(routers, r)
	}

	return routers, nil
}

// baseLines returns the identity lines in insertion order. Each one is
// prepended, so they end up reversed at the top of the configuration.
func baseLines(id string) []string {
	return []string{
		"frr defaults traditional",
		fmt.Sprintf("hostname %s", id),
		"no ipv6 forwarding",
	}
}

func checkProtocolRouters(assignment *addressing.Assignment, protocols map[string]string) error {
	var unknown []string
	for id := range protocols {
		if !assignment.HasRouter(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: protocol configuration for routers not in topology: %s",
			ErrUnknownRouterReference, strings.Join(unknown, ", "))
	}

	var missing []string
	for _, id := range assignment.Routers() {
		if _, ok := protocols[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no protocol configuration for routers: %s",
			ErrUnknownRouterReference, strings.Join(missing, ", "))
	}
	return nil
}
