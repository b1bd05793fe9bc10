package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// We prefer to return stderr over the process exit code
type ExitErrorVerbose struct {
	E      exec.ExitError
	Stderr string
}

func (e ExitErrorVerbose) Error() string {
	if e.Stderr != "" {
		return strings.TrimSpace(e.Stderr)
	}
	if len(e.E.Stderr) != 0 {
		return string(e.E.Stderr)
	}
	return e.E.Error()
}

func (e ExitErrorVerbose) ExitCode() int {
	return e.E.ExitCode()
}

func Run(name string, args ...string) (string, error) {
	return RunContext(context.Background(), "", name, args...)
}

// RunContext runs the program in 'dir' (or the current directory if dir is empty),
// and returns stdout. The process is killed if ctx is cancelled.
func RunContext(ctx context.Context, dir string, name string, args ...string) (string, error) {
	return RunContextEnv(ctx, dir, nil, name, args...)
}

// RunContextEnv is RunContext with extra KEY=VALUE environment variables, which are
// added to our own environment.
func RunContextEnv(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) != 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	stderr := bytes.Buffer{}
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", ExitErrorVerbose{E: *exitErr, Stderr: stderr.String()}
		}
		return "", err
	}
	return string(out), nil
}
