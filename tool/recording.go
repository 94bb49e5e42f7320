package tool

import (
	"context"
	"io"
	"strings"
	"sync"
)

// RecordingRunner is a Runner for tests. It records every command instead of
// executing it, optionally delegating to OnRun (for example to fabricate the
// output files a real tool would have written).
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []string

	// OnRun, if non-nil, is invoked with each command; its error is
	// returned from Run.
	OnRun func(command string) error

	// Stdout is fed to RunOutput sinks.
	Stdout string
}

// Run implements Runner.
func (r *RecordingRunner) Run(ctx context.Context, command, message string) error {
	r.mu.Lock()
	r.Commands = append(r.Commands, command)
	r.mu.Unlock()
	if r.OnRun != nil {
		return r.OnRun(command)
	}
	return nil
}

// RunOutput implements Runner.
func (r *RecordingRunner) RunOutput(ctx context.Context, command, message string, sink func(io.Reader) error) error {
	r.mu.Lock()
	r.Commands = append(r.Commands, command)
	r.mu.Unlock()
	if r.OnRun != nil {
		if err := r.OnRun(command); err != nil {
			return err
		}
	}
	return sink(strings.NewReader(r.Stdout))
}
