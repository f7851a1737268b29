package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/protflow/internal/config"
	"github.com/aretw0/protflow/pkg/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, "protflow.yaml", `
work_dir: /scratch/run1
storage_format: csv
jobstarter:
  kind: slurm
  max_array: 20
  retry_interval: 5s
tools:
  rosettascripts: /opt/rosetta/bin/rosetta_scripts
snapshot:
  backend: redis
  redact: ["^secret_"]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/scratch/run1", cfg.WorkDir)
	assert.Equal(t, "csv", cfg.StorageFormat)
	assert.Equal(t, config.StarterSlurm, cfg.JobStarter.Kind)
	assert.Equal(t, 20, cfg.JobStarter.MaxArray)
	assert.Equal(t, 5*time.Second, cfg.JobStarter.RetryInterval)
	assert.Equal(t, "/opt/rosetta/bin/rosetta_scripts", cfg.Tools.RosettaScripts)
	assert.Equal(t, config.SnapshotRedis, cfg.Snapshot.Backend)
	assert.Equal(t, []string{"^secret_"}, cfg.Snapshot.Redact)

	// untouched keys keep their defaults
	assert.Equal(t, "sbatch", cfg.JobStarter.Sbatch)
	assert.Equal(t, "python", cfg.Tools.RFdiffusionPython)
	assert.Equal(t, 2*time.Minute, cfg.Tools.RosettaOutputWait)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "protflow.yaml", "jobstarter:\n  max_cores: 2\n")
	t.Setenv("PROTFLOW_JOBSTARTER_MAX_CORES", "7")
	t.Setenv("PROTFLOW_WORK_DIR", "/env/work")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.JobStarter.MaxCores)
	assert.Equal(t, "/env/work", cfg.WorkDir)
}

func TestLoad_BoundFlags(t *testing.T) {
	path := writeConfig(t, "protflow.yaml", "work_dir: /from/file\nstorage_format: csv\n")
	t.Setenv("PROTFLOW_STORAGE_FORMAT", "yaml")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("work-dir", "", "")
	fs.String("format", "", "")
	require.NoError(t, fs.Parse([]string{"--work-dir", "/from/flag"}))

	cfg, err := config.Load(path,
		config.BindFlag("work_dir", fs.Lookup("work-dir")),
		config.BindFlag("storage_format", fs.Lookup("format")),
		config.BindFlag("log_level", fs.Lookup("absent")),
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.WorkDir)
	// unset flags do not shadow the environment
	assert.Equal(t, "yaml", cfg.StorageFormat)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	d := config.Defaults()
	assert.Equal(t, d.WorkDir, cfg.WorkDir)
	assert.Equal(t, d.JobStarter, cfg.JobStarter)
	assert.Equal(t, d.Tools, cfg.Tools)
	assert.Empty(t, cfg.Snapshot.Backend)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown format", func(c *config.Config) { c.StorageFormat = "parquet" }},
		{"unknown starter", func(c *config.Config) { c.JobStarter.Kind = "pbs" }},
		{"unknown backend", func(c *config.Config) { c.Snapshot.Backend = "s3" }},
		{"bad redact pattern", func(c *config.Config) { c.Snapshot.Redact = []string{"("} }},
		{"bad key", func(c *config.Config) { c.Snapshot.EncryptionKey = "abcd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSnapshotKey(t *testing.T) {
	s := config.SnapshotConfig{EncryptionKey: "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"}
	key, err := s.Key()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	s.EncryptionKey = "zz"
	_, err = s.Key()
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
