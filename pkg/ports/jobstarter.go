package ports

import "context"

// Job is one batch of command lines submitted for a stage.
type Job struct {
	// Commands are shell command lines, one per invocation.
	Commands []string
	// Options is a backend specific resource request string.
	Options string
	// Name identifies the job on the backend.
	Name string
	// Wait blocks Start until every command has finished.
	Wait bool
	// OutputPath is the directory for command files and logs.
	OutputPath string
}

// JobStarter executes batches of commands.
//
// A JobStarter reports only submission failures. A command that runs and fails is
// observed by the caller through missing output artifacts.
type JobStarter interface {
	Start(ctx context.Context, job Job) error
}

// JobStarterFunc adapts a function to the JobStarter interface.
type JobStarterFunc func(ctx context.Context, job Job) error

// Start calls f(ctx, job).
func (f JobStarterFunc) Start(ctx context.Context, job Job) error { return f(ctx, job) }
