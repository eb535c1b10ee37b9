package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/keystore"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

const (
	// EnvConfigPath is the environment variable for config file path.
	EnvConfigPath = "ESCROW_CONFIG"
	// EnvProfile is the environment variable for profile name.
	EnvProfile = "ESCROW_PROFILE"
	// EnvPrefix prefixes per-key overrides, e.g. ESCROW_AUDIT_LOG.
	EnvPrefix = "ESCROW"
)

// Config keys, shared by the YAML file, profiles and environment.
const (
	KeyKeystoreBackend = "keystore_backend"
	KeyKeystorePath    = "keystore_path"
	KeyStateDir        = "state_dir"
	KeyAuditLog        = "audit_log"
	KeyNotifyURL       = "notify_url"
	KeyNotifyTimeout   = "notify_timeout"
	KeyMaxAttempts     = "max_attempts"
	KeyCommitmentAlgo  = "commitment_algo"
)

var allKeys = []string{
	KeyKeystoreBackend, KeyKeystorePath, KeyStateDir, KeyAuditLog,
	KeyNotifyURL, KeyNotifyTimeout, KeyMaxAttempts, KeyCommitmentAlgo,
}

// EffectiveConfig holds the merged configuration (defaults + config file + profile + env).
type EffectiveConfig struct {
	KeystoreBackend string        `mapstructure:"keystore_backend" json:"keystore_backend"`
	KeystorePath    string        `mapstructure:"keystore_path" json:"keystore_path,omitempty"`
	StateDir        string        `mapstructure:"state_dir" json:"state_dir"`
	AuditLog        string        `mapstructure:"audit_log" json:"audit_log,omitempty"`
	NotifyURL       string        `mapstructure:"notify_url" json:"notify_url,omitempty"`
	NotifyTimeout   time.Duration `mapstructure:"notify_timeout" json:"notify_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts" json:"max_attempts"`
	CommitmentAlgo  string        `mapstructure:"commitment_algo" json:"commitment_algo"`
}

// DefaultEffective returns the built-in default effective config.
func DefaultEffective() EffectiveConfig {
	return EffectiveConfig{
		KeystoreBackend: keystore.BackendFile,
		StateDir:        ".escrow",
		NotifyTimeout:   10 * time.Second,
		MaxAttempts:     5,
		CommitmentAlgo:  crypto.HashSHA256,
	}
}

// ResolvedKeystorePath returns KeystorePath, or the backend's default
// location under StateDir.
func (c *EffectiveConfig) ResolvedKeystorePath() string {
	if c.KeystorePath != "" {
		return c.KeystorePath
	}
	if c.KeystoreBackend == keystore.BackendBadger {
		return filepath.Join(c.StateDir, "keys")
	}
	return filepath.Join(c.StateDir, keystore.DefaultFileName)
}

// RecordsDir is where protocol records are kept.
func (c *EffectiveConfig) RecordsDir() string {
	return filepath.Join(c.StateDir, "records")
}

// Validate checks values that cannot be checked by type alone.
func (c *EffectiveConfig) Validate() error {
	switch c.KeystoreBackend {
	case keystore.BackendFile, keystore.BackendBadger, keystore.BackendMemory:
	default:
		return fmt.Errorf("%w: %s %q; supported: %s", util.ErrInvalidRequest,
			KeyKeystoreBackend, c.KeystoreBackend, strings.Join(keystore.SupportedBackends, ", "))
	}
	if !crypto.SupportedHashAlgo(c.CommitmentAlgo) {
		return fmt.Errorf("%w: %s %q", util.ErrUnsupportedAlgorithm, KeyCommitmentAlgo, c.CommitmentAlgo)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: %s must not be negative", util.ErrInvalidRequest, KeyMaxAttempts)
	}
	if c.NotifyTimeout < 0 {
		return fmt.Errorf("%w: %s must not be negative", util.ErrInvalidRequest, KeyNotifyTimeout)
	}
	if c.StateDir == "" {
		return fmt.Errorf("%w: %s is empty", util.ErrInvalidRequest, KeyStateDir)
	}
	return nil
}

var (
	// loaded is the config loaded in the current process (set by Load).
	loaded *EffectiveConfig
)

// Load reads config from the given path (or discovers it), applies the given profile
// and ESCROW_* environment overrides, and stores the result.
// Config path: if path is non-empty it is used; else ESCROW_CONFIG; else ~/.escrow.yaml, ./.escrow.yaml (first found).
// Profile: if profile is non-empty it is used; else ESCROW_PROFILE; else no profile.
// CLI flags are layered on top by the caller.
func Load(configPath, profile string) (*EffectiveConfig, error) {
	base := DefaultEffective()

	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if profile == "" {
		profile = os.Getenv(EnvProfile)
	}

	if configPath != "" {
		if err := readAndMerge(configPath, profile, &base); err != nil {
			return nil, err
		}
	} else {
		for _, p := range searchPaths() {
			if _, err := os.Stat(p); err == nil {
				if err := readAndMerge(p, profile, &base); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	mergeEnv(&base)
	if err := base.Validate(); err != nil {
		return nil, err
	}

	loaded = &base
	return loaded, nil
}

func searchPaths() []string {
	var candidates []string
	if home, _ := os.UserHomeDir(); home != "" {
		candidates = append(candidates, filepath.Join(home, ".escrow.yaml"), filepath.Join(home, ".escrow.yml"))
	}
	if wd, _ := os.Getwd(); wd != "" {
		candidates = append(candidates, filepath.Join(wd, ".escrow.yaml"), filepath.Join(wd, ".escrow.yml"))
	}
	return candidates
}

// readAndMerge reads one config file and merges it (and optional profile) into base.
func readAndMerge(path, profile string, base *EffectiveConfig) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// A missing file is not an error; viper returns *fs.PathError with SetConfigFile.
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && errors.Is(pathErr.Err, fs.ErrNotExist) {
			return nil
		}
		if errors.As(err, new(viper.ConfigFileNotFoundError)) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	merge(v, base)

	if profile != "" {
		sub := v.Sub("profiles." + profile)
		if sub == nil {
			return fmt.Errorf("%w: profile %q not found in %s", util.ErrInvalidRequest, profile, path)
		}
		merge(sub, base)
	}
	return nil
}

// merge copies every key set in v into c.
func merge(v *viper.Viper, c *EffectiveConfig) {
	if v.IsSet(KeyKeystoreBackend) {
		c.KeystoreBackend = v.GetString(KeyKeystoreBackend)
	}
	if v.IsSet(KeyKeystorePath) {
		c.KeystorePath = v.GetString(KeyKeystorePath)
	}
	if v.IsSet(KeyStateDir) {
		c.StateDir = v.GetString(KeyStateDir)
	}
	if v.IsSet(KeyAuditLog) {
		c.AuditLog = v.GetString(KeyAuditLog)
	}
	if v.IsSet(KeyNotifyURL) {
		c.NotifyURL = v.GetString(KeyNotifyURL)
	}
	if v.IsSet(KeyNotifyTimeout) {
		c.NotifyTimeout = v.GetDuration(KeyNotifyTimeout)
	}
	if v.IsSet(KeyMaxAttempts) {
		c.MaxAttempts = v.GetInt(KeyMaxAttempts)
	}
	if v.IsSet(KeyCommitmentAlgo) {
		c.CommitmentAlgo = strings.ToLower(v.GetString(KeyCommitmentAlgo))
	}
}

// mergeEnv applies ESCROW_<KEY> overrides.
func mergeEnv(c *EffectiveConfig) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, k := range allKeys {
		_ = v.BindEnv(k)
	}
	merge(v, c)
}

// Get returns the loaded effective config, or nil if Load was never called or failed.
func Get() *EffectiveConfig {
	return loaded
}

// SetLoaded sets the effective config (for tests).
func SetLoaded(c *EffectiveConfig) {
	loaded = c
}
