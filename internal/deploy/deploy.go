package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	// DefaultCommand is the lab orchestrator binary.
	DefaultCommand = "containerlab"

	// DeploySubcommand deploys the topology file found in the working directory.
	DeploySubcommand = "deploy"
)

// ErrDeploymentToolFailure is returned when the orchestrator writes to
// stderr, whatever its exit status.
var ErrDeploymentToolFailure = errors.New("deployment tool failure")

// Runner runs an external command in dir and returns its output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Deployer invokes the orchestrator for a lab directory.
type Deployer struct {
	Command string
	Runner  Runner
}

// NewDeployer returns a deployer running containerlab through os/exec.
func NewDeployer() *Deployer {
	return &Deployer{Command: DefaultCommand, Runner: ExecRunner{}}
}

// Deploy runs "<command> deploy" in dir and returns its standard output.
func (d *Deployer) Deploy(ctx context.Context, dir string) ([]byte, error) {
	stdout, stderr, err := d.Runner.Run(ctx, dir, d.Command, DeploySubcommand)
	if len(stderr) > 0 {
		return stdout, fmt.Errorf("%w: error occurred while deploying containerlab topology: %s",
			ErrDeploymentToolFailure, strings.TrimSpace(string(stderr)))
	}
	if err != nil {
		return stdout, fmt.Errorf("%w: failed to run %s %s: %v", ErrDeploymentToolFailure, d.Command, DeploySubcommand, err)
	}
	return stdout, nil
}
