// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// ErrCompilerNotFound is returned when a compiler program is not installed.
var ErrCompilerNotFound = errors.New("compiler not found")

// waitDelay bounds how long a killed compiler may keep its output pipes open.
const waitDelay = 5 * time.Second

type (
	// Output is what a finished process produced.
	Output struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// Runner executes one program in a working directory. A non-zero exit
	// status is reported through Output.ExitCode, not as an error; errors
	// mean the program could not be run at all.
	Runner interface {
		Run(ctx context.Context, dir string, argv []string) (*Output, error)
	}

	// Locator is implemented by runners that can check for a program
	// before running it.
	Locator interface {
		LookPath(name string) (string, error)
	}

	// ExecRunner runs programs on the host with os/exec.
	ExecRunner struct {
		// Env, when non-nil, replaces the inherited environment.
		Env []string
	}
)

// Run executes argv in dir and captures its output.
func (r ExecRunner) Run(ctx context.Context, dir string, argv []string) (*Output, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = r.Env
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return out, fmt.Errorf("%s interrupted: %w", argv[0], ctx.Err())
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrCompilerNotFound, argv[0])
		default:
			return nil, fmt.Errorf("failed to execute %s: %w", argv[0], err)
		}
	}
	return out, nil
}

// LookPath reports where name would be found in PATH.
func (ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCompilerNotFound, name)
	}
	return path, nil
}
