package addressing

import (
	"fmt"
	"net"

	"github.com/zinrai/frr-clab/internal/topology"
)

// Fragment is the address bound to one router interface.
type Fragment struct {
	Interface string
	Address   net.IP
	PrefixLen int
}

// CIDR returns the fragment as "address/prefix-length".
func (f Fragment) CIDR() string {
	return fmt.Sprintf("%s/%d", f.Address, f.PrefixLen)
}

// Binding records the subnet issued to one link.
type Binding struct {
	Link     topology.Link
	Subnet   Subnet
	AAddress net.IP
	BAddress net.IP
}

// Assignment is the result of addressing every link of a topology.
type Assignment struct {
	routers   []string
	fragments map[string][]Fragment
	bindings  []Binding
}

// Routers returns router IDs in order of first reference.
func (a *Assignment) Routers() []string {
	return a.routers
}

// Fragments returns the interface fragments of router in append order.
func (a *Assignment) Fragments(router string) []Fragment {
	return a.fragments[router]
}

// HasRouter reports whether any link references router.
func (a *Assignment) HasRouter(router string) bool {
	_, ok := a.fragments[router]
	return ok
}

// Bindings returns the per-link subnet bindings in link order.
func (a *Assignment) Bindings() []Binding {
	return a.bindings
}

func (a *Assignment) addFragment(router string, f Fragment) {
	if _, ok := a.fragments[router]; !ok {
		a.routers = append(a.routers, router)
	}
	a.fragments[router] = append(a.fragments[router], f)
}

// Assign pops one subnet per link from pool, in link order, and binds the
// lower host address to the link's A end and the higher one to its B end.
// Running out of subnets aborts the assignment with ErrSubnetExhausted.
func Assign(pool *SubnetPool, links []topology.Link) (*Assignment, error) {
	a := &Assignment{fragments: make(map[string][]Fragment)}

	for i, link := range links {
		s, err := pool.Pop()
		if err != nil {
			return nil, fmt.Errorf("link %d (%s, %s): %w", i, link.A, link.B, err)
		}

		low, high := s.Hosts()
		prefixLen := s.PrefixLen()

		a.addFragment(link.A.Router, Fragment{Interface: link.A.Interface, Address: low, PrefixLen: prefixLen})
		a.addFragment(link.B.Router, Fragment{Interface: link.B.Interface, Address: high, PrefixLen: prefixLen})

		a.bindings = append(a.bindings, Binding{
			Link:     link,
			Subnet:   s,
			AAddress: low,
			BAddress: high,
		})
	}

	return a, nil
}
