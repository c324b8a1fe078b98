// Package config provides configuration loading and validation for the
// Sovereign Knowledge Substrate's maintenance entrypoint.
//
// Configuration file: substratectl.yaml (path given via -config).
// Schema version: 1
//
// Validation: all required fields must be present and numeric ranges are
// enforced (weights, alpha factors, retention). Invalid config at startup
// is a fatal error; there is no hot-reload.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version, GitCommit, BuildTime are injected by the build via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// ShadowKeyEnvVar is the environment variable supplying the 32-byte Secret
// Vault master key, either as 32 raw bytes or as hex-encoded text of
// exactly 64 characters. Its absence means the vault starts locked.
const ShadowKeyEnvVar = "SUBSTRATE_SHADOW_KEY"

// StorageRootEnvVar is the environment variable supplying the storage
// root directory, overriding Storage.RootDir when set.
const StorageRootEnvVar = "SUBSTRATE_STORAGE_ROOT"

// Config is the root configuration structure for the substrate's
// maintenance entrypoint.
type Config struct {
	// SchemaVersion must be "1".
	SchemaVersion string `yaml:"schema_version"`

	// AgentID identifies the default agent scope used by single-agent
	// maintenance commands (status/snapshot/evaluate).
	AgentID string `yaml:"agent_id"`

	Storage       StorageConfig       `yaml:"storage"`
	Governor      GovernorConfig      `yaml:"governor"`
	Pruning       PruningConfig       `yaml:"pruning"`
	Observability ObservabilityConfig `yaml:"observability"`
	Operator      OperatorConfig      `yaml:"operator"`
}

// StorageConfig holds the embedded KV engine's parameters.
type StorageConfig struct {
	// RootDir is the directory containing the substrate's database file.
	// Default: /var/lib/substrate. Overridden by StorageRootEnvVar.
	RootDir string `yaml:"root_dir"`

	// FileName is the database file's base name within RootDir.
	// Default: substrate.db.
	FileName string `yaml:"file_name"`
}

// Path returns the full database file path.
func (s StorageConfig) Path() string {
	return s.RootDir + string(os.PathSeparator) + s.FileName
}

// GovernorConfig holds the Task Governor's weight configuration.
type GovernorConfig struct {
	// BurnoutPenalty scales how much burnout_risk depresses a hard task's
	// multiplier. Range: [0.0, 1.0]. Default: 0.5.
	BurnoutPenalty float64 `yaml:"burnout_penalty"`

	// MinHardFactor floors the hard-task multiplier. Range: (0.0, 1.0].
	// Default: 0.1.
	MinHardFactor float64 `yaml:"min_hard_factor"`

	// TrustSmoothingAlpha is the EWMA smoothing factor for trust
	// adjustment. Range: [0.0, 1.0]. Default: 0.8. It is validated here
	// only: AdjustTrust takes alpha as an argument, and the serve command
	// does not pass this value to it.
	TrustSmoothingAlpha float64 `yaml:"trust_smoothing_alpha"`
}

// PruningConfig holds the pruning helper's retention and throttle
// parameters.
type PruningConfig struct {
	// RetentionDays is how long an expired-by-prefix entry is kept before
	// the pruning helper removes it. Default: 90.
	RetentionDays int `yaml:"retention_days"`

	// BatchCapacity is the token-bucket capacity throttling how many
	// entries the pruning helper removes per refill period. Default: 500.
	BatchCapacity int `yaml:"batch_capacity"`

	// RefillPeriod is the token-bucket refill interval. Default: 10s.
	RefillPeriod time.Duration `yaml:"refill_period"`
}

// ObservabilityConfig holds metrics and logging parameters.
type ObservabilityConfig struct {
	// MetricsAddr is the Prometheus metrics HTTP bind address.
	// Default: 127.0.0.1:9191.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls the minimum log level (debug, info, warn, error).
	// Default: info.
	LogLevel string `yaml:"log_level"`

	// LogFormat controls the log output format (json, console).
	// Default: json.
	LogFormat string `yaml:"log_format"`
}

// OperatorConfig holds the maintenance Unix-socket admin surface's
// parameters.
type OperatorConfig struct {
	// SocketPath is the Unix domain socket path for substratectl's admin
	// protocol (status/snapshot/prune/evaluate). Permissions: 0600.
	// Default: /run/substrate/operator.sock.
	SocketPath string `yaml:"socket_path"`

	// Enabled controls whether the operator socket is started.
	// Default: true.
	Enabled bool `yaml:"enabled"`
}

// DefaultDBRoot is the default storage root directory.
const DefaultDBRoot = "/var/lib/substrate"

// Defaults returns a Config populated with all default values.
func Defaults() Config {
	return Config{
		SchemaVersion: "1",
		AgentID:       "default",
		Storage: StorageConfig{
			RootDir:  DefaultDBRoot,
			FileName: "substrate.db",
		},
		Governor: GovernorConfig{
			BurnoutPenalty:      0.5,
			MinHardFactor:       0.1,
			TrustSmoothingAlpha: 0.8,
		},
		Pruning: PruningConfig{
			RetentionDays: 90,
			BatchCapacity: 500,
			RefillPeriod:  10 * time.Second,
		},
		Observability: ObservabilityConfig{
			MetricsAddr: "127.0.0.1:9191",
			LogLevel:    "info",
			LogFormat:   "json",
		},
		Operator: OperatorConfig{
			Enabled:    true,
			SocketPath: "/run/substrate/operator.sock",
		},
	}
}

// Load reads and validates a config file from the given path, then applies
// environment overrides (StorageRootEnvVar). Returns the merged config
// (defaults overridden by file values, overridden by environment).
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %q: %w", path, err)
	}

	if root := os.Getenv(StorageRootEnvVar); root != "" {
		cfg.Storage.RootDir = root
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks all config fields for correctness. Returns a
// descriptive error listing all violations found.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.SchemaVersion != "1" {
		errs = append(errs, fmt.Sprintf("schema_version must be \"1\", got %q", cfg.SchemaVersion))
	}
	if cfg.AgentID == "" {
		errs = append(errs, "agent_id must not be empty")
	}
	if cfg.Storage.RootDir == "" {
		errs = append(errs, "storage.root_dir must not be empty")
	}
	if cfg.Storage.FileName == "" {
		errs = append(errs, "storage.file_name must not be empty")
	}
	if cfg.Governor.BurnoutPenalty < 0.0 || cfg.Governor.BurnoutPenalty > 1.0 {
		errs = append(errs, fmt.Sprintf("governor.burnout_penalty must be in [0.0, 1.0], got %f", cfg.Governor.BurnoutPenalty))
	}
	if cfg.Governor.MinHardFactor <= 0.0 || cfg.Governor.MinHardFactor > 1.0 {
		errs = append(errs, fmt.Sprintf("governor.min_hard_factor must be in (0.0, 1.0], got %f", cfg.Governor.MinHardFactor))
	}
	if cfg.Governor.TrustSmoothingAlpha < 0.0 || cfg.Governor.TrustSmoothingAlpha > 1.0 {
		errs = append(errs, fmt.Sprintf("governor.trust_smoothing_alpha must be in [0.0, 1.0], got %f", cfg.Governor.TrustSmoothingAlpha))
	}
	if cfg.Pruning.RetentionDays < 1 {
		errs = append(errs, fmt.Sprintf("pruning.retention_days must be >= 1, got %d", cfg.Pruning.RetentionDays))
	}
	if cfg.Pruning.BatchCapacity < 1 {
		errs = append(errs, fmt.Sprintf("pruning.batch_capacity must be >= 1, got %d", cfg.Pruning.BatchCapacity))
	}
	if cfg.Pruning.RefillPeriod < time.Second {
		errs = append(errs, fmt.Sprintf("pruning.refill_period must be >= 1s, got %s", cfg.Pruning.RefillPeriod))
	}
	if cfg.Operator.Enabled && cfg.Operator.SocketPath == "" {
		errs = append(errs, "operator.socket_path must not be empty when operator.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", joinStrings(errs, "\n  - "))
	}
	return nil
}

// shadowKeySize is the required master key length for AES-256, duplicated
// from internal/vault.KeySize to avoid importing vault here purely for a
// constant.
const shadowKeySize = 32

// ResolveShadowKey reads SUBSTRATE_SHADOW_KEY and returns the 32-byte
// master key it encodes. The variable may hold either 32 raw bytes or 64
// hex characters. Returns (nil, nil) when the variable is unset — callers
// should treat this as "vault starts locked", not as an error.
func ResolveShadowKey() ([]byte, error) {
	raw := os.Getenv(ShadowKeyEnvVar)
	if raw == "" {
		return nil, nil
	}
	if len(raw) == shadowKeySize {
		return []byte(raw), nil
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != shadowKeySize {
		return nil, fmt.Errorf("%s must be %d raw bytes or %d hex characters", ShadowKeyEnvVar, shadowKeySize, shadowKeySize*2)
	}
	return decoded, nil
}

func joinStrings(ss []string, sep string) string {
	if len(ss) == 0 {
		return ""
	}
	result := ss[0]
	for _, s := range ss[1:] {
		result += sep + s
	}
	return result
}
