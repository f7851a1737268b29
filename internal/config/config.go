// Package config loads the protflow CLI configuration from a file and the
// environment. Values are passed explicitly to constructors; nothing here is
// read through package state.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. PROTFLOW_WORK_DIR or
// PROTFLOW_JOBSTARTER_MAX_CORES.
const EnvPrefix = "PROTFLOW"

// Job starter kinds.
const (
	StarterLocal = "local"
	StarterSlurm = "slurm"
)

// Snapshot backends.
const (
	SnapshotNone   = ""
	SnapshotFile   = "file"
	SnapshotRedis  = "redis"
	SnapshotMemory = "memory"
)

// Config is the complete CLI configuration.
type Config struct {
	WorkDir       string `mapstructure:"work_dir"`
	StorageFormat string `mapstructure:"storage_format"`
	LogLevel      string `mapstructure:"log_level"`

	JobStarter JobStarterConfig `mapstructure:"jobstarter"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// JobStarterConfig selects and tunes the job backend.
type JobStarterConfig struct {
	Kind          string        `mapstructure:"kind"`
	MaxCores      int           `mapstructure:"max_cores"`
	Shell         string        `mapstructure:"shell"`
	Sbatch        string        `mapstructure:"sbatch"`
	MaxArray      int           `mapstructure:"max_array"`
	SubmitRetries uint64        `mapstructure:"submit_retries"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// ToolsConfig holds the locations of external tools.
type ToolsConfig struct {
	RosettaScripts    string        `mapstructure:"rosettascripts"`
	RosettaOutputWait time.Duration `mapstructure:"rosetta_output_wait"`
	RFdiffusionScript string        `mapstructure:"rfdiffusion_script"`
	RFdiffusionPython string        `mapstructure:"rfdiffusion_python"`
	// Definitions is a YAML or JSON file of script tools.
	Definitions string `mapstructure:"definitions"`
}

// SnapshotConfig configures where registry checkpoints are stored.
type SnapshotConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	// EncryptionKey is a hex encoded 32 byte AES key. Empty disables encryption.
	EncryptionKey string   `mapstructure:"encryption_key"`
	Redact        []string `mapstructure:"redact"`
}

// MetricsConfig controls the prometheus text dump written after a run.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// TracingConfig enables span export to a JSON lines file.
type TracingConfig struct {
	File string `mapstructure:"file"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		WorkDir:       ".",
		StorageFormat: "json",
		LogLevel:      "info",
		JobStarter: JobStarterConfig{
			Kind:          StarterLocal,
			Shell:         "sh",
			Sbatch:        "sbatch",
			MaxArray:      100,
			SubmitRetries: 2,
			RetryInterval: 2 * time.Second,
		},
		Tools: ToolsConfig{
			RosettaOutputWait: 2 * time.Minute,
			RFdiffusionPython: "python",
			Definitions:       "tools.yaml",
		},
		Snapshot: SnapshotConfig{
			Dir:       ".protflow/snapshots",
			RedisAddr: "localhost:6379",
		},
	}
}

// LoadOption customizes a Load call.
type LoadOption func(*viper.Viper) error

// BindFlag lets a command line flag override key when the flag is set.
func BindFlag(key string, flag *pflag.Flag) LoadOption {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}
		return v.BindPFlag(key, flag)
	}
}

// Load reads the configuration. An explicit path must exist; without one,
// protflow.{yaml,toml,json} is searched in the working directory and in
// $HOME/.config/protflow, and a missing file is not an error. Environment
// variables override file values and bound flags override both.
func Load(path string, opts ...LoadOption) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("failed to bind flag: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("protflow")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "protflow"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("storage_format", d.StorageFormat)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("jobstarter.kind", d.JobStarter.Kind)
	v.SetDefault("jobstarter.max_cores", d.JobStarter.MaxCores)
	v.SetDefault("jobstarter.shell", d.JobStarter.Shell)
	v.SetDefault("jobstarter.sbatch", d.JobStarter.Sbatch)
	v.SetDefault("jobstarter.max_array", d.JobStarter.MaxArray)
	v.SetDefault("jobstarter.submit_retries", d.JobStarter.SubmitRetries)
	v.SetDefault("jobstarter.retry_interval", d.JobStarter.RetryInterval)

	v.SetDefault("tools.rosettascripts", d.Tools.RosettaScripts)
	v.SetDefault("tools.rosetta_output_wait", d.Tools.RosettaOutputWait)
	v.SetDefault("tools.rfdiffusion_script", d.Tools.RFdiffusionScript)
	v.SetDefault("tools.rfdiffusion_python", d.Tools.RFdiffusionPython)
	v.SetDefault("tools.definitions", d.Tools.Definitions)

	v.SetDefault("snapshot.backend", d.Snapshot.Backend)
	v.SetDefault("snapshot.dir", d.Snapshot.Dir)
	v.SetDefault("snapshot.redis_addr", d.Snapshot.RedisAddr)
	v.SetDefault("snapshot.redis_password", d.Snapshot.RedisPassword)
	v.SetDefault("snapshot.redis_db", d.Snapshot.RedisDB)
	v.SetDefault("snapshot.ttl", d.Snapshot.TTL)
	v.SetDefault("snapshot.encryption_key", d.Snapshot.EncryptionKey)
	v.SetDefault("snapshot.redact", d.Snapshot.Redact)

	v.SetDefault("metrics.file", d.Metrics.File)
	v.SetDefault("tracing.file", d.Tracing.File)
}

// Validate checks enumerated values, redaction patterns and the encryption key.
func (c *Config) Validate() error {
	if _, err := persistence.Lookup(c.StorageFormat); err != nil {
		return fmt.Errorf("storage_format: %w", err)
	}
	switch c.JobStarter.Kind {
	case StarterLocal, StarterSlurm:
	default:
		return fmt.Errorf("%w: unknown jobstarter kind %q", domain.ErrInvalidArgument, c.JobStarter.Kind)
	}
	switch c.Snapshot.Backend {
	case SnapshotNone, SnapshotFile, SnapshotRedis, SnapshotMemory:
	default:
		return fmt.Errorf("%w: unknown snapshot backend %q", domain.ErrInvalidArgument, c.Snapshot.Backend)
	}
	for _, pattern := range c.Snapshot.Redact {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: redact pattern %q: %v", domain.ErrInvalidArgument, pattern, err)
		}
	}
	if c.Snapshot.EncryptionKey != "" {
		if _, err := c.Snapshot.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Key decodes the snapshot encryption key.
func (s SnapshotConfig) Key() ([]byte, error) {
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption_key is not hex: %v", domain.ErrInvalidArgument, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption_key must be 32 bytes, got %d", domain.ErrInvalidArgument, len(key))
	}
	return key, nil
}
