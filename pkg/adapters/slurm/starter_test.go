package slurm_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/protflow/pkg/adapters/slurm"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSbatch writes a stand-in for sbatch that records its arguments, one per
// line, into FAKE_SBATCH_LOG. It fails the first failures calls, then
// accepts the job and exits with FAKE_SBATCH_EXIT.
func fakeSbatch(t *testing.T, failures int) (bin, logPath string) {
	t.Helper()
	dir := t.TempDir()
	bin = filepath.Join(dir, "sbatch")
	logPath = filepath.Join(dir, "args.log")
	counter := filepath.Join(dir, "calls")
	script := `#!/bin/sh
echo call >> "` + counter + `"
n=$(wc -l < "` + counter + `")
if [ "$n" -le "$FAKE_SBATCH_FAILURES" ]; then
  echo "sbatch: error: slurm controller unavailable" >&2
  exit 1
fi
for a in "$@"; do echo "$a" >> "$FAKE_SBATCH_LOG"; done
echo "42"
exit "${FAKE_SBATCH_EXIT:-0}"
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))
	t.Setenv("FAKE_SBATCH_LOG", logPath)
	t.Setenv("FAKE_SBATCH_FAILURES", strconv.Itoa(failures))
	t.Setenv("FAKE_SBATCH_EXIT", "0")
	return bin, logPath
}

func readArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestStarter_Submit(t *testing.T) {
	bin, logPath := fakeSbatch(t, 0)
	out := t.TempDir()
	starter := slurm.NewStarter(slurm.WithSbatch(bin), slurm.WithMaxArray(10))

	err := starter.Start(context.Background(), ports.Job{
		Commands:   []string{"echo a", "echo b", "echo c"},
		Options:    "--partition=gpu --gres=gpu:1",
		Name:       "design",
		Wait:       true,
		OutputPath: out,
	})
	require.NoError(t, err)

	args := readArgs(t, logPath)
	require.GreaterOrEqual(t, len(args), 7)
	assert.Equal(t, "--array=0-2%10", args[0])
	assert.Equal(t, "--job-name=design", args[1])
	assert.Contains(t, args, "--wait")
	assert.Contains(t, args, "--parsable")
	assert.Contains(t, args, "--partition=gpu")
	assert.Contains(t, args, "--gres=gpu:1")

	script := args[len(args)-1]
	assert.True(t, strings.HasSuffix(script, "_cmds.sh"))
	data, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SLURM_ARRAY_TASK_ID+1")

	cmds, err := os.ReadFile(strings.TrimSuffix(script, ".sh"))
	require.NoError(t, err)
	assert.Equal(t, "echo a\necho b\necho c\n", string(cmds))
}

func TestStarter_RetriesTransientFailure(t *testing.T) {
	bin, logPath := fakeSbatch(t, 1)
	starter := slurm.NewStarter(slurm.WithSbatch(bin), slurm.WithSubmitRetries(2, time.Millisecond))

	err := starter.Start(context.Background(), ports.Job{
		Commands:   []string{"true"},
		Name:       "retry",
		OutputPath: t.TempDir(),
	})
	require.NoError(t, err)
	assert.NotContains(t, readArgs(t, logPath), "--wait")
}

func TestStarter_SubmissionFailure(t *testing.T) {
	bin, _ := fakeSbatch(t, 9)
	starter := slurm.NewStarter(slurm.WithSbatch(bin), slurm.WithSubmitRetries(1, time.Millisecond))

	err := starter.Start(context.Background(), ports.Job{
		Commands:   []string{"true"},
		Name:       "broken",
		OutputPath: t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "controller unavailable")
}

func TestSubmitArgs_NoWait(t *testing.T) {
	args := slurm.SubmitArgs(ports.Job{Name: "x", OutputPath: "/tmp/out"}, 5, 3, "run.sh")
	assert.Equal(t, []string{
		"--array=0-4%3",
		"--job-name=x",
		"--output=/tmp/out/x_%a.log",
		"--error=/tmp/out/x_%a.log",
		"--parsable",
		"run.sh",
	}, args)
}

func TestStarter_FailedTasksAreNotResubmitted(t *testing.T) {
	bin, _ := fakeSbatch(t, 0)
	t.Setenv("FAKE_SBATCH_EXIT", "1")
	starter := slurm.NewStarter(slurm.WithSbatch(bin), slurm.WithSubmitRetries(2, time.Millisecond))

	err := starter.Start(context.Background(), ports.Job{
		Commands:   []string{"tool a", "tool b"},
		Name:       "x",
		Wait:       true,
		OutputPath: t.TempDir(),
	})
	require.NoError(t, err)

	calls, err := os.ReadFile(filepath.Join(filepath.Dir(bin), "calls"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(calls), "call"))
}

func TestParseJobID(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"42\n", "42"},
		{"42;cluster\n", "42"},
		{"", ""},
		{"sbatch: error: invalid partition\n", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slurm.ParseJobID(tt.out), tt.out)
	}
}
