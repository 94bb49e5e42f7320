// Package tool runs the external bioinformatics binaries the pipeline stages
// drive (sambamba, bedtools, ataqv, macs2). Commands are shell pipelines, run
// through bash so redirections and quoting behave the same as when pasted
// into a terminal.
package tool

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os/exec"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Runner executes one external command line. Implementations log message
// before running and return a non-nil error on any non-zero exit; callers
// treat that as a hard stop for the current operation.
type Runner interface {
	// Run executes command and waits for it to finish.
	Run(ctx context.Context, command, message string) error

	// RunOutput executes command and streams its stdout into sink. The
	// command's exit status and sink's error are folded into the returned
	// error.
	RunOutput(ctx context.Context, command, message string, sink func(io.Reader) error) error
}

// ExecRunner is the production Runner, shelling out via bash -c.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, command, message string) error {
	if message != "" {
		log.Printf("%s", message)
	}
	log.Printf("running: %s", command)
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.E(err, "command failed:", command, stderr.String())
	}
	return nil
}

// RunOutput implements Runner.
func (ExecRunner) RunOutput(ctx context.Context, command, message string, sink func(io.Reader) error) error {
	if message != "" {
		log.Printf("%s", message)
	}
	log.Printf("running: %s", command)
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.E(err, "opening stdout pipe:", command)
	}
	if err := cmd.Start(); err != nil {
		return errors.E(err, "starting command:", command)
	}
	sinkErr := sink(stdout)
	// Drain so Wait does not block on a full pipe if sink bailed early.
	io.Copy(ioutil.Discard, stdout) // nolint: errcheck
	if err := cmd.Wait(); err != nil {
		return errors.E(err, "command failed:", command, stderr.String())
	}
	return sinkErr
}

// LookPath resolves program on PATH, returning "" when it is not installed.
func LookPath(program string) string {
	path, err := exec.LookPath(program)
	if err != nil {
		return ""
	}
	return path
}
