package lab

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zinrai/frr-clab/internal/addressing"
	"github.com/zinrai/frr-clab/internal/clab"
	"github.com/zinrai/frr-clab/internal/frr"
	"github.com/zinrai/frr-clab/internal/topology"
)

// Options configures a lab build.
type Options struct {
	Name         string
	ParentPrefix string
	PoolOrder    addressing.PoolOrder
	Image        string
	DaemonsBind  string
	OSPFArea     string
	SupernetLen  int
}

// DefaultOptions returns the options of the reference lab.
func DefaultOptions() Options {
	return Options{
		Name:         clab.DefaultLabName,
		ParentPrefix: "10.254.0.0/24",
		PoolOrder:    addressing.LowestFirst,
		Image:        clab.DefaultImage,
		DaemonsBind:  "./" + frr.DaemonsFileName + ":" + frr.ContainerDaemonsPath,
		OSPFArea:     frr.DefaultOSPFArea,
		SupernetLen:  frr.DefaultSupernetLen,
	}
}

// Session addresses and configures one lab. It owns the subnet pool and
// the router set for a single run and is not reused.
type Session struct {
	opts       Options
	block      addressing.AddressBlock
	pool       *addressing.SubnetPool
	log        logrus.FieldLogger
	assignment *addressing.Assignment
	routers    []*frr.Router
}

// NewSession validates the parent block and prepares the subnet pool.
func NewSession(opts Options, log logrus.FieldLogger) (*Session, error) {
	block, err := addressing.ParseAddressBlock(opts.ParentPrefix)
	if err != nil {
		return nil, err
	}

	pool, err := addressing.NewSubnetPool(block, opts.PoolOrder)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Session{
		opts:  opts,
		block: block,
		pool:  pool,
		log:   log.WithField("lab", opts.Name),
	}, nil
}

// Build addresses every link of desc, assembles the router configurations
// and returns the containerlab spec. protocols maps router IDs to external
// BGP configuration; nil skips it. Nothing is written to disk.
func (s *Session) Build(desc *topology.Description, protocols map[string]string) (clab.Spec, error) {
	if s.assignment != nil {
		return clab.Spec{}, fmt.Errorf("session for lab %s already built", s.opts.Name)
	}

	s.log.WithFields(logrus.Fields{
		"parent_prefix": s.block.String(),
		"subnets":       s.pool.Len(),
		"links":         len(desc.Links),
	}).Info("Allocating link subnets")

	assignment, err := addressing.Assign(s.pool, desc.Links)
	if err != nil {
		return clab.Spec{}, err
	}
	for _, b := range assignment.Bindings() {
		s.log.WithFields(logrus.Fields{
			"subnet": b.Subnet.String(),
			"a":      fmt.Sprintf("%s=%s", b.Link.A, b.AAddress),
			"b":      fmt.Sprintf("%s=%s", b.Link.B, b.BAddress),
		}).Debug("Link addressed")
	}

	assembler := frr.NewAssembler(s.block, s.opts.SupernetLen, s.opts.OSPFArea)
	routers, err := assembler.Assemble(assignment, protocols)
	if err != nil {
		return clab.Spec{}, err
	}

	s.assignment = assignment
	s.routers = routers

	return s.buildSpec(desc), nil
}

func (s *Session) buildSpec(desc *topology.Description) clab.Spec {
	b := clab.NewBuilder(s.opts.Name)
	for _, r := range s.routers {
		node := clab.Node{
			Kind:  clab.DefaultKind,
			Image: s.opts.Image,
			Binds: []string{
				s.opts.DaemonsBind,
				frr.ConfigFileName(r.ID) + ":" + frr.ContainerConfigPath,
			},
		}
		if role := desc.Role(r.ID); role != "" {
			node.Labels = map[string]string{"role": role}
		}
		b.AddNode(r.ID, node)
	}
	for _, l := range desc.Links {
		b.AddLink(l)
	}
	return b.Build()
}

// Write writes the router configurations, the daemons file and the
// topology file into dir. It returns the topology file path.
func (s *Session) Write(dir string, spec clab.Spec) (string, error) {
	if s.routers == nil && s.assignment == nil {
		return "", fmt.Errorf("session for lab %s not built", s.opts.Name)
	}

	if err := frr.WriteConfigs(dir, s.routers); err != nil {
		return "", err
	}
	if err := frr.WriteDaemons(dir, frr.DefaultDaemons()); err != nil {
		return "", err
	}
	path, err := spec.Write(dir)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"dir":      dir,
		"routers":  len(s.routers),
		"topology": path,
	}).Info("Lab files written")
	return path, nil
}

// Routers returns the assembled routers in first-reference order.
func (s *Session) Routers() []*frr.Router {
	return s.routers
}

// Assignment returns the address assignment of the last Build.
func (s *Session) Assignment() *addressing.Assignment {
	return s.assignment
}

// Block returns the parent address block.
func (s *Session) Block() addressing.AddressBlock {
	return s.block
}

// Remaining returns the number of subnets left in the pool.
func (s *Session) Remaining() int {
	return s.pool.Len()
}
