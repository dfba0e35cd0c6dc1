package addressing

import (
	"errors"
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

// LinkPrefixLen is the prefix length of every point-to-point subnet.
const LinkPrefixLen = 31

var (
	// ErrInvalidAllocationRequest is returned when the parent block cannot be
	// subdivided into /31 subnets.
	ErrInvalidAllocationRequest = errors.New("invalid allocation request")

	// ErrInvalidAddressBlock is returned for a parent block that is not a
	// valid IPv4 network prefix.
	ErrInvalidAddressBlock = errors.New("invalid address block")
)

// AddressBlock is the IPv4 parent prefix that link subnets are carved from.
type AddressBlock struct {
	network *net.IPNet
}

// ParseAddressBlock parses an IPv4 CIDR string such as "10.254.0.0/24".
// Host bits must be zero and the prefix must be shorter than /31.
func ParseAddressBlock(s string) (AddressBlock, error) {
	ip, network, err := net.ParseCIDR(s)
	if err != nil {
		return AddressBlock{}, fmt.Errorf("%w: %v", ErrInvalidAddressBlock, err)
	}
	if ip.To4() == nil {
		return AddressBlock{}, fmt.Errorf("%w: %s is not IPv4", ErrInvalidAddressBlock, s)
	}
	if !ip.Equal(network.IP) {
		return AddressBlock{}, fmt.Errorf("%w: %s has host bits set", ErrInvalidAddressBlock, s)
	}
	network.IP = network.IP.To4()

	ones, _ := network.Mask.Size()
	if ones >= LinkPrefixLen {
		return AddressBlock{}, fmt.Errorf("%w: new prefix length /%d should be larger than parent prefix length %d",
			ErrInvalidAllocationRequest, LinkPrefixLen, ones)
	}
	return AddressBlock{network: network}, nil
}

// PrefixLen returns the prefix length of the block.
func (b AddressBlock) PrefixLen() int {
	ones, _ := b.network.Mask.Size()
	return ones
}

// SubnetCount returns how many /31 subnets fit in the block.
func (b AddressBlock) SubnetCount() int {
	return 1 << uint(LinkPrefixLen-b.PrefixLen())
}

// Supernet returns the block widened to prefixLen bits. A block that is
// already wider than prefixLen is returned unchanged.
func (b AddressBlock) Supernet(prefixLen int) *net.IPNet {
	if prefixLen >= b.PrefixLen() || prefixLen < 0 {
		return b.IPNet()
	}
	mask := net.CIDRMask(prefixLen, 32)
	return &net.IPNet{IP: b.network.IP.Mask(mask), Mask: mask}
}

// IPNet returns a copy of the underlying network.
func (b AddressBlock) IPNet() *net.IPNet {
	ip := make(net.IP, len(b.network.IP))
	copy(ip, b.network.IP)
	mask := make(net.IPMask, len(b.network.Mask))
	copy(mask, b.network.Mask)
	return &net.IPNet{IP: ip, Mask: mask}
}

func (b AddressBlock) String() string {
	return b.network.String()
}

// Subnet is a /31 point-to-point subnet.
type Subnet struct {
	network *net.IPNet
}

// Hosts returns both usable addresses of the subnet, lower address first.
func (s Subnet) Hosts() (net.IP, net.IP) {
	first, last := cidr.AddressRange(s.network)
	low := make(net.IP, len(first))
	copy(low, first)
	return low, last
}

// PrefixLen returns the prefix length of the subnet.
func (s Subnet) PrefixLen() int {
	ones, _ := s.network.Mask.Size()
	return ones
}

// Contains reports whether ip belongs to the subnet.
func (s Subnet) Contains(ip net.IP) bool {
	return s.network.Contains(ip)
}

func (s Subnet) String() string {
	return s.network.String()
}

// subnetAt returns the index-th /31 subnet of block.
func subnetAt(block AddressBlock, index int) (Subnet, error) {
	network, err := cidr.Subnet(block.network, LinkPrefixLen-block.PrefixLen(), index)
	if err != nil {
		return Subnet{}, err
	}
	return Subnet{network: network}, nil
}

// Allocate partitions block into all of its /31 subnets in increasing
// address order.
func Allocate(block AddressBlock) ([]Subnet, error) {
	if block.network == nil {
		return nil, fmt.Errorf("%w: empty address block", ErrInvalidAllocationRequest)
	}

	n := block.SubnetCount()
	subnets := make([]Subnet, 0, n)
	for i := 0; i < n; i++ {
		s, err := subnetAt(block, i)
		if err != nil {
			return nil, fmt.Errorf("failed to derive subnet %d of %s: %w", i, block, err)
		}
		subnets = append(subnets, s)
	}
	return subnets, nil
}
