package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/protflow/internal/cli"
	"github.com/aretw0/protflow/internal/config"
	"github.com/aretw0/protflow/internal/testutils"
	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WritePoses(t, dir, names...)
	return dir
}

func TestApp_InitAndOpenRegistry(t *testing.T) {
	cfg := testConfig(t)
	app, err := cli.NewApp(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	p, path, err := app.InitRegistry([]string{writeInputs(t, "a", "b")}, "*.pdb")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.FileExists(t, path)

	reopened, err := app.OpenRegistry("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reopened.Descriptions())
}

func TestApp_InitRegistry_FromScorefile(t *testing.T) {
	cfg := testConfig(t)
	app, err := cli.NewApp(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	_, path, err := app.InitRegistry([]string{writeInputs(t, "a")}, "*.pdb")
	require.NoError(t, err)

	other := testConfig(t)
	app2, err := cli.NewApp(other, &bytes.Buffer{})
	require.NoError(t, err)
	p, _, err := app2.InitRegistry([]string{path}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, p.Descriptions())
}

func TestApp_InitRegistry_NoInputs(t *testing.T) {
	app, err := cli.NewApp(testConfig(t), &bytes.Buffer{})
	require.NoError(t, err)

	_, _, err = app.InitRegistry(nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNewApp_BadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogLevel = "chatty"
	_, err := cli.NewApp(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApp_RunStage(t *testing.T) {
	cfg := testConfig(t)
	cfg.JobStarter.MaxCores = 2
	cfg.Snapshot.Backend = config.SnapshotFile
	cfg.Metrics.File = filepath.Join(t.TempDir(), "metrics", "protflow.prom")
	cfg.Tracing.File = filepath.Join(t.TempDir(), "spans.json")
	require.NoError(t, os.WriteFile(cfg.Tools.Definitions, []byte(`
tools:
  - name: copy
    command: "for i in 1 2; do cp {pose} {output_dir}/{description}_000$i.pdb; done"
    index_layers: 1
`), 0644))

	var logs bytes.Buffer
	app, err := cli.NewApp(cfg, &logs)
	require.NoError(t, err)
	_, _, err = app.InitRegistry([]string{writeInputs(t, "a", "b")}, "*.pdb")
	require.NoError(t, err)

	out, err := app.RunStage(context.Background(), cli.StageOptions{Tool: "copy", Prefix: "dup"})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())

	p, err := app.OpenRegistry("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_0001", "a_0002", "b_0001", "b_0002"}, p.Descriptions())
	for _, path := range p.PosesList() {
		assert.FileExists(t, path)
	}

	assert.FileExists(t, filepath.Join(cfg.WorkDir, cfg.Snapshot.Dir, "dup.json"))

	metrics, err := os.ReadFile(cfg.Metrics.File)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `protflow_stages_total{runner="copy",status="ok"} 1`)

	spans, err := os.ReadFile(cfg.Tracing.File)
	require.NoError(t, err)
	assert.Contains(t, string(spans), "stage copy")

	assert.Contains(t, logs.String(), "stage_finish")
}

// countingStarter records how many jobs were started.
type countingStarter struct{ calls int }

func (s *countingStarter) Start(ctx context.Context, job ports.Job) error {
	s.calls++
	return nil
}

func TestApp_RunStage_Resume(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Tools.Definitions, []byte(`
tools:
  - name: copy
    command: "cp {pose} {output_dir}/{description}_0001.pdb"
    index_layers: 1
`), 0644))

	app, err := cli.NewApp(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	_, _, err = app.InitRegistry([]string{writeInputs(t, "a")}, "*.pdb")
	require.NoError(t, err)
	scorefile, err := app.Scorefile()
	require.NoError(t, err)
	initial, err := os.ReadFile(scorefile)
	require.NoError(t, err)

	_, err = app.RunStage(context.Background(), cli.StageOptions{Tool: "copy"})
	require.NoError(t, err)

	// rerun the same stage against the original registry: results are reused
	require.NoError(t, os.WriteFile(scorefile, initial, 0644))
	js := &countingStarter{}
	out, err := app.WithJobStarter(js).RunStage(context.Background(), cli.StageOptions{Tool: "copy"})
	require.NoError(t, err)
	assert.True(t, out.Resumed())
	assert.Zero(t, js.calls)
}

func TestApp_RunStage_UnknownTool(t *testing.T) {
	app, err := cli.NewApp(testConfig(t), &bytes.Buffer{})
	require.NoError(t, err)

	_, err = app.RunStage(context.Background(), cli.StageOptions{Tool: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
