// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/arxivate/arxivate/internal/latex"

	"github.com/charmbracelet/log"
)

const (
	// DefaultPasses is the number of LaTeX runs after bibtex.
	DefaultPasses = 2

	// interactionFlag keeps pdflatex from stopping at a prompt on errors.
	interactionFlag = "-interaction=nonstopmode"

	// tailLines is how much compiler output an Error keeps.
	tailLines = 30

	// bibtexWarnStatus is what bibtex returns when it only printed warnings.
	bibtexWarnStatus = 1
)

// ErrCompileFailed is matched by every *Error.
var ErrCompileFailed = errors.New("compilation failed")

type (
	// Step is one program invocation of the chain.
	Step struct {
		// Name identifies the step in logs and errors: "latex", "bibtex", "latex pass 2".
		Name string
		Argv []string
		// WarnStatus is the highest exit status that only signals warnings.
		WarnStatus int
	}

	// StepResult records a completed step.
	StepResult struct {
		Step
		ExitCode int
		Duration time.Duration
	}

	// Result lists the steps that ran, in order.
	Result struct {
		Steps []StepResult
	}

	// Error reports a step that exited non-zero or was stopped by its timeout.
	Error struct {
		Step     Step
		ExitCode int
		// Output holds the last lines the step printed.
		Output string
		// Err is set when the step did not finish, e.g. on timeout.
		Err error
	}

	// Chain is the configured compile sequence. A Chain holds only settings
	// and may be reused.
	Chain struct {
		latex   []string
		bibtex  []string
		passes  int
		timeout time.Duration
		runner  Runner
		logger  *log.Logger
	}

	// Option configures a Chain.
	Option func(*Chain)
)

// WithPasses sets the number of LaTeX runs after bibtex; values below 1 are ignored.
func WithPasses(n int) Option {
	return func(c *Chain) {
		if n >= 1 {
			c.passes = n
		}
	}
}

// WithTimeout bounds each step; zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		c.timeout = d
	}
}

// WithRunner replaces the ExecRunner.
func WithRunner(r Runner) Option {
	return func(c *Chain) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithLogger sets the logger used for step progress.
func WithLogger(l *log.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChain builds a chain from the LaTeX and bibtex command lines, e.g.
// "pdflatex" and "bibtex".
func NewChain(latexCmd, bibtexCmd string, opts ...Option) (*Chain, error) {
	latexArgv, err := ParseCommand(latexCmd)
	if err != nil {
		return nil, fmt.Errorf("latex command: %w", err)
	}
	bibtexArgv, err := ParseCommand(bibtexCmd)
	if err != nil {
		return nil, fmt.Errorf("bibtex command: %w", err)
	}

	c := &Chain{
		latex:  latexArgv,
		bibtex: bibtexArgv,
		passes: DefaultPasses,
		runner: ExecRunner{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Steps returns the invocations for the main document mainFile (a flat
// name inside the working directory). bibtex runs only with a bibliography.
func (c *Chain) Steps(mainFile string, bibliography bool) []Step {
	latexArgv := slices.Clone(c.latex)
	if !slices.ContainsFunc(latexArgv[1:], isInteractionFlag) {
		latexArgv = append(latexArgv, interactionFlag)
	}
	latexArgv = append(latexArgv, mainFile)

	steps := []Step{{Name: "latex", Argv: latexArgv}}
	if bibliography {
		bib := append(slices.Clone(c.bibtex), latex.TrimExtension(mainFile))
		steps = append(steps, Step{Name: "bibtex", Argv: bib, WarnStatus: bibtexWarnStatus})
	}
	for i := 1; i <= c.passes; i++ {
		steps = append(steps, Step{Name: fmt.Sprintf("latex pass %d", i), Argv: slices.Clone(latexArgv)})
	}
	return steps
}

// Verify checks that the programs the chain needs are installed, when the
// runner can tell.
func (c *Chain) Verify(bibliography bool) error {
	loc, ok := c.runner.(Locator)
	if !ok {
		return nil
	}
	programs := []string{c.latex[0]}
	if bibliography {
		programs = append(programs, c.bibtex[0])
	}
	for _, p := range programs {
		if _, err := loc.LookPath(p); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the chain in dir and stops at the first failing step. The
// returned Result lists every step that ran, including the failing one.
func (c *Chain) Run(ctx context.Context, dir, mainFile string, bibliography bool) (*Result, error) {
	res := &Result{}
	for _, step := range c.Steps(mainFile, bibliography) {
		sr, err := c.runStep(ctx, dir, step)
		if sr != nil {
			res.Steps = append(res.Steps, *sr)
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (c *Chain) runStep(ctx context.Context, dir string, step Step) (*StepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compilation canceled: %w", err)
	}

	stepCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Info("running "+step.Name, "cmd", FormatCommand(step.Argv))
	start := time.Now()
	out, err := c.runner.Run(stepCtx, dir, step.Argv)
	elapsed := time.Since(start)

	if err != nil {
		// Interrupts from the caller are not compile failures.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("compilation canceled: %w", ctx.Err())
		}
		if stepCtx.Err() != nil {
			var tail string
			if out != nil {
				tail = outputTail(out)
			}
			return &StepResult{Step: step, ExitCode: -1, Duration: elapsed},
				&Error{Step: step, ExitCode: -1, Output: tail, Err: fmt.Errorf("timed out after %s: %w", c.timeout, stepCtx.Err())}
		}
		return nil, err
	}

	sr := &StepResult{Step: step, ExitCode: out.ExitCode, Duration: elapsed}
	c.logger.Debug("finished "+step.Name, "exit", out.ExitCode, "took", elapsed.Round(time.Millisecond))
	switch {
	case out.ExitCode > step.WarnStatus || out.ExitCode < 0:
		return sr, &Error{Step: step, ExitCode: out.ExitCode, Output: outputTail(out)}
	case out.ExitCode != 0:
		c.logger.Warn(step.Name+" reported warnings", "exit", out.ExitCode)
	}
	return sr, nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s) %v", e.Step.Name, FormatCommand(e.Step.Argv), e.Err)
	}
	return fmt.Sprintf("%s (%s) exited with status %d", e.Step.Name, FormatCommand(e.Step.Argv), e.ExitCode)
}

// Is reports ErrCompileFailed so callers can match any step failure.
func (e *Error) Is(target error) bool {
	return target == ErrCompileFailed
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

func isInteractionFlag(arg string) bool {
	return strings.HasPrefix(strings.TrimLeft(arg, "-"), "interaction")
}

func outputTail(out *Output) string {
	text := strings.TrimRight(out.Stdout, "\n")
	if errText := strings.TrimRight(out.Stderr, "\n"); errText != "" {
		if text != "" {
			text += "\n"
		}
		text += errText
	}
	lines := strings.Split(text, "\n")
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	return strings.Join(lines, "\n")
}
