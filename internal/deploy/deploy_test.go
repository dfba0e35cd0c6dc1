package deploy

import (
	"context"
	"errors"
	"testing"
)

type fakeRunner struct {
	stdout, stderr []byte
	err            error

	dir  string
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	f.dir, f.name, f.args = dir, name, args
	return f.stdout, f.stderr, f.err
}

func TestDeploy(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr bool
	}{
		{"success", &fakeRunner{stdout: []byte("deployed")}, false},
		{"stderr with zero exit", &fakeRunner{stderr: []byte("ERRO[0000] no topology file found")}, true},
		{"stderr with failure", &fakeRunner{stderr: []byte("boom"), err: errors.New("exit status 1")}, true},
		{"failure without stderr", &fakeRunner{err: errors.New("exec: not found")}, true},
		{"whitespace stderr", &fakeRunner{stderr: []byte("\n")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Deployer{Command: DefaultCommand, Runner: tt.runner}
			_, err := d.Deploy(context.Background(), "/tmp/lab")

			if tt.wantErr {
				if !errors.Is(err, ErrDeploymentToolFailure) {
					t.Errorf("error = %v, want ErrDeploymentToolFailure", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.runner.dir != "/tmp/lab" || tt.runner.name != "containerlab" {
				t.Errorf("ran %s in %s", tt.runner.name, tt.runner.dir)
			}
			if len(tt.runner.args) != 1 || tt.runner.args[0] != "deploy" {
				t.Errorf("args = %v, want [deploy]", tt.runner.args)
			}
		})
	}
}

func TestExecRunner(t *testing.T) {
	stdout, stderr, err := ExecRunner{}.Run(context.Background(), t.TempDir(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Skipf("sh not available: %v", err)
	}
	if string(stdout) != "out\n" || string(stderr) != "err\n" {
		t.Errorf("stdout=%q stderr=%q", stdout, stderr)
	}
}
