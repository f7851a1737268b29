package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
)

// Stage is the prepared environment of one runner invocation.
type Stage struct {
	Prefix     string
	WorkDir    string
	JobStarter ports.JobStarter
}

// Setup checks the prefix, resolves the job starter and creates
// <work_dir>/<prefix>.
//
// The job starter is the first non-nil of explicit, runnerDefault and the
// registry default.
func Setup(p *poses.Poses, prefix string, explicit, runnerDefault ports.JobStarter) (*Stage, error) {
	if err := p.CheckPrefix(prefix); err != nil {
		return nil, err
	}

	js := explicit
	if js == nil {
		js = runnerDefault
	}
	if js == nil {
		js = p.JobStarter()
	}
	if js == nil {
		return nil, fmt.Errorf("%w: pass one to the run, the runner or the poses", domain.ErrNoJobStarter)
	}

	if p.WorkDir() == "" {
		return nil, fmt.Errorf("%w: poses have no work dir", domain.ErrInvalidArgument)
	}
	dir, err := filepath.Abs(filepath.Join(p.WorkDir(), prefix))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stage directory: %w", err)
	}
	return &Stage{Prefix: prefix, WorkDir: dir, JobStarter: js}, nil
}

// Path joins elem onto the stage directory.
func (s *Stage) Path(elem ...string) string {
	return filepath.Join(append([]string{s.WorkDir}, elem...)...)
}

// OutputDir creates and returns <stage>/output_<name>.
func (s *Stage) OutputDir(name string) (string, error) {
	dir := s.Path("output_" + name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

// SearchPath checks that a configured executable or script is set and exists.
func SearchPath(path, name string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path for %s is not set in the configuration", domain.ErrInvalidArgument, name)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: path set for %s does not exist at %s", domain.ErrNotFound, name, path)
	}
	return path, nil
}
