package addressing

import (
	"errors"
	"fmt"
)

// ErrSubnetExhausted is returned when the pool has no subnet left to issue.
var ErrSubnetExhausted = errors.New("subnet pool exhausted")

// PoolOrder selects how the allocator's ascending subnets are stacked in
// the pool. Pop always takes the tail of the stack.
type PoolOrder string

const (
	// LowestFirst stacks the subnets so the lowest one sits on the tail.
	LowestFirst PoolOrder = "lowest-first"

	// HighestFirst keeps the ascending order, so the highest subnet sits on
	// the tail. Matches address plans produced by popping the end of the
	// ascending list.
	HighestFirst PoolOrder = "highest-first"
)

// ParsePoolOrder validates a pool order name.
func ParsePoolOrder(s string) (PoolOrder, error) {
	switch PoolOrder(s) {
	case LowestFirst, HighestFirst:
		return PoolOrder(s), nil
	default:
		return "", fmt.Errorf("unknown pool order %q (want %s or %s)", s, LowestFirst, HighestFirst)
	}
}

// SubnetPool is a stack of /31 subnets derived once from one address block.
// It is the lazy form of Allocate: popping a LowestFirst pool to the end
// yields Allocate's output in order. Each subnet is issued at most once. The stack is materialized lazily, so
// wide parent blocks do not cost memory up front.
type SubnetPool struct {
	block  AddressBlock
	order  PoolOrder
	total  int
	issued int
}

// NewSubnetPool builds the pool for block.
func NewSubnetPool(block AddressBlock, order PoolOrder) (*SubnetPool, error) {
	if block.network == nil {
		return nil, fmt.Errorf("%w: empty address block", ErrInvalidAllocationRequest)
	}
	if _, err := ParsePoolOrder(string(order)); err != nil {
		return nil, err
	}
	return &SubnetPool{
		block: block,
		order: order,
		total: block.SubnetCount(),
	}, nil
}

// Len returns the number of subnets still available.
func (p *SubnetPool) Len() int {
	return p.total - p.issued
}

// Pop removes and returns the subnet at the tail of the stack.
func (p *SubnetPool) Pop() (Subnet, error) {
	if p.issued >= p.total {
		return Subnet{}, fmt.Errorf("%w: all %d subnets of %s issued", ErrSubnetExhausted, p.total, p.block)
	}

	index := p.issued
	if p.order == HighestFirst {
		index = p.total - 1 - p.issued
	}

	s, err := subnetAt(p.block, index)
	if err != nil {
		return Subnet{}, fmt.Errorf("failed to derive subnet %d of %s: %w", index, p.block, err)
	}
	p.issued++
	return s, nil
}
