// Package process provides a JobStarter that runs commands as local processes.
package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/aretw0/protflow/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Environment variables set for every command.
const (
	EnvJobName = "PROTFLOW_JOB_NAME"
	EnvTaskID  = "PROTFLOW_TASK_ID"
)

// Starter implements ports.JobStarter with local shell processes.
// At most MaxCores commands run at the same time.
type Starter struct {
	maxCores int
	shell    string
	env      map[string]string
	logger   *slog.Logger
}

// Option configures the starter.
type Option func(*Starter)

// WithMaxCores bounds the number of concurrent commands.
func WithMaxCores(n int) Option {
	return func(s *Starter) {
		if n > 0 {
			s.maxCores = n
		}
	}
}

// WithShell sets the shell used to interpret command lines (default "sh").
func WithShell(shell string) Option {
	return func(s *Starter) {
		s.shell = shell
	}
}

// WithEnvironment adds variables to the environment of every command.
func WithEnvironment(env map[string]string) Option {
	return func(s *Starter) {
		for k, v := range env {
			s.env[k] = v
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Starter) {
		s.logger = logger
	}
}

// NewStarter creates a local job starter.
func NewStarter(opts ...Option) *Starter {
	s := &Starter{
		maxCores: runtime.NumCPU(),
		shell:    "sh",
		env:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// MaxCores returns the concurrency bound.
func (s *Starter) MaxCores() int { return s.maxCores }

// Start runs the commands of job. A command that fails is logged and does not
// fail the job; only setup errors and context cancellation are returned.
// Each command writes its output to <OutputPath>/<name>_<index>.log.
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

	cmdFile, err := WriteCommandFile(outDir, name, job.Commands)
	if err != nil {
		return err
	}
	logger := s.logger.With("job", name)
	logger.Info("starting local job", "commands", len(job.Commands), "max_cores", s.maxCores, "cmdfile", cmdFile)

	g := new(errgroup.Group)
	g.SetLimit(s.maxCores)
	for i, command := range job.Commands {
		g.Go(func() error {
			s.run(ctx, logger, name, outDir, i, command)
			return nil
		})
	}

	if !job.Wait {
		go func() { _ = g.Wait() }()
		return nil
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("job %s interrupted: %w", name, err)
	}
	logger.Info("local job finished")
	return nil
}

func (s *Starter) run(ctx context.Context, logger *slog.Logger, name, outDir string, i int, command string) {
	if ctx.Err() != nil {
		return
	}
	logPath := filepath.Join(outDir, fmt.Sprintf("%s_%d.log", name, i))
	logFile, err := os.Create(logPath)
	if err != nil {
		logger.Warn("failed to create command log", "index", i, "error", err)
		return
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, s.shell, "-c", command)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), EnvJobName+"="+name, EnvTaskID+"="+strconv.Itoa(i))
	for k, v := range s.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Run(); err != nil {
		logger.Warn("command failed", "index", i, "log", logPath, "error", err)
		return
	}
	logger.Debug("command finished", "index", i)
}

// WriteCommandFile writes one command per line to a uniquely named file in dir
// and returns its path.
func WriteCommandFile(dir, name string, commands []string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_cmds", name, uuid.NewString()))
	data := strings.Join(commands, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "", fmt.Errorf("failed to write command file: %w", err)
	}
	return path, nil
}
