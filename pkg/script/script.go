package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ExitError is returned when a script finishes with a non-zero exit status.
type ExitError struct {
	Name   string
	Status uint8
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("script '%s' exited with status %d", e.Name, e.Status)
}

// Script is a parsed shell program. It is safe to Run concurrently.
type Script struct {
	name string
	prog *syntax.File
}

// RunOpts configures a single execution of a Script.
type RunOpts struct {
	// Args become the positional parameters $1..$n.
	Args []string
	// Env is layered on top of the process environment.
	Env map[string]string
	// Dir is the working directory. Empty means the current directory.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Compile parses src. name is used in error messages.
func Compile(name, src string) (*Script, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	return &Script{
		name: name,
		prog: prog,
	}, nil
}

// Name returns the name the script was compiled with.
func (s *Script) Name() string {
	return s.name
}

// Run executes the script with a fresh interpreter.
func (s *Script) Run(ctx context.Context, opts RunOpts) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	runnerOpts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(environ(opts.Env)...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if opts.Dir != "" {
		runnerOpts = append(runnerOpts, interp.Dir(opts.Dir))
	}
	// "--" keeps args such as "-v" from being read as shell options.
	if len(opts.Args) > 0 {
		params := append([]string{"--"}, opts.Args...)
		runnerOpts = append(runnerOpts, interp.Params(params...))
	}

	runner, err := interp.New(runnerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, s.prog)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return &ExitError{Name: s.name, Status: status}
		}
		return fmt.Errorf("script '%s' failed: %w", s.name, err)
	}

	return nil
}

func environ(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}

	return env
}
