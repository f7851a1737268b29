// Package slurm provides a JobStarter that submits command batches as SLURM
// array jobs through sbatch.
package slurm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/protflow/pkg/adapters/process"
	"github.com/aretw0/protflow/pkg/options"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxArray caps the number of array tasks running at once.
	DefaultMaxArray = 100
	// DefaultSubmitRetries is the number of extra sbatch attempts on failure.
	DefaultSubmitRetries = 2
)

// Starter implements ports.JobStarter on top of sbatch.
type Starter struct {
	sbatch   string
	maxArray int
	retries  uint64
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Starter)

// WithSbatch sets the sbatch executable.
func WithSbatch(path string) Option {
	return func(s *Starter) {
		s.sbatch = path
	}
}

// WithMaxArray sets the array throttle (the %N suffix of --array).
func WithMaxArray(n int) Option {
	return func(s *Starter) {
		if n > 0 {
			s.maxArray = n
		}
	}
}

// WithSubmitRetries sets how many times a failed submission is retried.
func WithSubmitRetries(n uint64, interval time.Duration) Option {
	return func(s *Starter) {
		s.retries = n
		s.interval = interval
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Starter) {
		s.logger = logger
	}
}

// NewStarter creates a SLURM job starter.
func NewStarter(opts ...Option) *Starter {
	s := &Starter{
		sbatch:   "sbatch",
		maxArray: DefaultMaxArray,
		retries:  DefaultSubmitRetries,
		interval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Start writes the command file and an array script, then submits it.
// Task i of the array evaluates line i+1 of the command file.
// Only rejected submissions are retried. Once sbatch has printed a job id,
// failed array tasks are logged and Start returns nil.
func (s *Starter) Start(ctx context.Context, job ports.Job) error {
	if len(job.Commands) == 0 {
		return nil
	}
	name := job.Name
	if name == "" {
		name = "job"
	}
	outDir := job.OutputPath
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create job output directory: %w", err)
	}

	cmdFile, err := process.WriteCommandFile(outDir, name, job.Commands)
	if err != nil {
		return err
	}
	script, err := writeArrayScript(cmdFile)
	if err != nil {
		return err
	}

	args := SubmitArgs(job, len(job.Commands), s.maxArray, script)
	logger := s.logger.With("job", name)
	logger.Info("submitting slurm array", "tasks", len(job.Commands), "wait", job.Wait)

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), s.retries)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		cmd := exec.CommandContext(ctx, s.sbatch, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		runErr := cmd.Run()
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		jobID := ParseJobID(stdout.String())
		if jobID == "" {
			if runErr == nil {
				runErr = fmt.Errorf("no job id in output %q", strings.TrimSpace(stdout.String()))
			}
			logger.Warn("sbatch failed", "attempt", attempt, "output", strings.TrimSpace(stderr.String()), "error", runErr)
			return fmt.Errorf("sbatch: %w: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		// accepted; with --wait a non-zero exit is the array's own status
		if runErr != nil {
			logger.Warn("slurm array finished with failures", "slurm_job", jobID, "error", runErr)
			return nil
		}
		logger.Debug("sbatch accepted job", "slurm_job", jobID)
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return fmt.Errorf("failed to submit job %s: %w", name, err)
	}
	return nil
}

// ParseJobID extracts the job id from `sbatch --parsable` output
// ("<id>" or "<id>;<cluster>"). It returns "" when no id was printed.
func ParseJobID(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	id, _, _ := strings.Cut(strings.TrimSpace(line), ";")
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	for _, r := range id {
		if (r < '0' || r > '9') && r != '_' {
			return ""
		}
	}
	return id
}

// SubmitArgs builds the sbatch argument list for an array of n tasks.
func SubmitArgs(job ports.Job, n, maxArray int, script string) []string {
	name := job.Name
	if name == "" {
		name = "job"
	}
	logPattern := filepath.Join(job.OutputPath, name+"_%a.log")
	args := []string{
		fmt.Sprintf("--array=0-%d%%%d", n-1, maxArray),
		"--job-name=" + name,
		"--output=" + logPattern,
		"--error=" + logPattern,
		"--parsable",
	}
	if job.Wait {
		args = append(args, "--wait")
	}
	args = append(args, options.Args(job.Options)...)
	return append(args, script)
}

func writeArrayScript(cmdFile string) (string, error) {
	path := cmdFile + ".sh"
	script := "#!/bin/bash\n" +
		"cmd=$(sed -n \"$((SLURM_ARRAY_TASK_ID+1))p\" " + shellQuote(cmdFile) + ")\n" +
		"eval \"$cmd\"\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return "", fmt.Errorf("failed to write array script: %w", err)
	}
	return path, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
