package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/zinrai/frr-clab/internal/addressing"
	"github.com/zinrai/frr-clab/internal/lab"
)

// Config holds the lab generation configuration.
type Config struct {
	TopologyFile string
	ScenarioFile string
	OutputDir    string
	Deploy       bool
	PlanDB       string
	LogLevel     string
	PoolOrder    string

	Lab lab.Options
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	opts := lab.DefaultOptions()
	return Config{
		TopologyFile: "topology.yaml",
		ScenarioFile: "",
		OutputDir:    "./output",
		Deploy:       false,
		PlanDB:       "",
		LogLevel:     "info",
		PoolOrder:    string(opts.PoolOrder),
		Lab:          opts,
	}
}

// BindFlags registers the generate flags on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.TopologyFile, "topology", "t", c.TopologyFile, "Path to the topology YAML/JSON file")
	fs.StringVarP(&c.ScenarioFile, "scenario", "s", c.ScenarioFile, "Path to the scenario file with per-router BGP configuration")
	fs.StringVarP(&c.OutputDir, "output-dir", "o", c.OutputDir, "Directory to write router configs and the lab topology")
	fs.BoolVar(&c.Deploy, "deploy", c.Deploy, "Run 'containerlab deploy' in the output directory")
	fs.StringVar(&c.PlanDB, "plan-db", c.PlanDB, "Record the address plan in this SQLite path or postgres:// DSN")
	fs.StringVar(&c.PoolOrder, "pool-order", c.PoolOrder, "Subnet pool order (lowest-first, highest-first)")
	fs.StringVar(&c.Lab.Name, "lab-name", c.Lab.Name, "Lab name")
	fs.StringVar(&c.Lab.ParentPrefix, "parent-prefix", c.Lab.ParentPrefix, "Parent IPv4 prefix to carve /31 link subnets from")
	fs.StringVar(&c.Lab.Image, "image", c.Lab.Image, "Container image for every router")
	fs.StringVar(&c.Lab.DaemonsBind, "daemons-bind", c.Lab.DaemonsBind, "Bind mount for the FRR daemons file")
	fs.StringVar(&c.Lab.OSPFArea, "ospf-area", c.Lab.OSPFArea, "OSPF area of the network statement")
	fs.IntVar(&c.Lab.SupernetLen, "ospf-supernet-len", c.Lab.SupernetLen, "Prefix length of the OSPF network statement")
}

// Validate checks the configuration and resolves derived fields.
func (c *Config) Validate() error {
	if c.TopologyFile == "" {
		return fmt.Errorf("--topology is required")
	}
	if c.Lab.Name == "" {
		return fmt.Errorf("--lab-name must not be empty")
	}
	if c.Lab.SupernetLen < 0 || c.Lab.SupernetLen > 32 {
		return fmt.Errorf("--ospf-supernet-len must be between 0 and 32, got %d", c.Lab.SupernetLen)
	}

	order, err := addressing.ParsePoolOrder(c.PoolOrder)
	if err != nil {
		return err
	}
	c.Lab.PoolOrder = order
	return nil
}

// configureLogging sets the global logrus level and formatter.
func configureLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
