package config

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path, if any, applying
// it on top of DefaultConfig. An empty configPath returns the defaults
// unchanged — the config file itself is optional (spec.md §6: every
// setting has a built-in default).
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}
	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance. Useful
// for testing or when Viper is configured externally (e.g. by cobra flag
// binding in cmd/fscrawl).
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}
	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars expands ${VAR}/$VAR references in the handful of
// config fields that plausibly carry them (output paths, pause file).
func substituteEnvVars(cfg *Config) error {
	cfg.OutDir = expandEnvVar(cfg.OutDir)
	cfg.Basename = expandEnvVar(cfg.Basename)
	cfg.PauseFile = expandEnvVar(cfg.PauseFile)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// Settings is the `.settings` file the orchestrator writes to
// <outdir>/<basename>.settings (SPEC_FULL.md §2.3): a human-readable,
// redacted snapshot of the effective run configuration — distinct from
// the resumable run_configuration JOB_METADATA row — plus a cached
// default starting identifier. Once a crawl has resolved the logged-in
// user's own person id, it is cached here; a later run without an
// explicit --individuals uses it only when its own Login yields no
// person id.
// Never carries a username or password (SPEC_FULL.md §2.1: "never
// written to the YAML or the `.settings` file").
type Settings struct {
	DefaultStartID                 string
	HopCount                       int
	RequestsPerSecond              float64
	PersonBatchSize                int
	MaxConcurrentPersonRequests    int
	MaxConcurrentRelationshipReqs  int
	Strict                          bool
}

// LoadSettings reads key=value pairs from path. A missing file is not an
// error; it simply yields a zero Settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("open settings file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "default_start_id":
			s.DefaultStartID = value
		case "hop_count":
			fmt.Sscanf(value, "%d", &s.HopCount)
		case "requests_per_second":
			fmt.Sscanf(value, "%f", &s.RequestsPerSecond)
		case "person_batch_size":
			fmt.Sscanf(value, "%d", &s.PersonBatchSize)
		case "max_concurrent_person_requests":
			fmt.Sscanf(value, "%d", &s.MaxConcurrentPersonRequests)
		case "max_concurrent_relationship_requests":
			fmt.Sscanf(value, "%d", &s.MaxConcurrentRelationshipReqs)
		case "strict":
			s.Strict = value == "true"
		}
	}
	return s, scanner.Err()
}

// SaveSettings writes s to path, creating or overwriting it.
func SaveSettings(path string, s Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create settings file: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "default_start_id=%s\n"+
		"hop_count=%d\n"+
		"requests_per_second=%g\n"+
		"person_batch_size=%d\n"+
		"max_concurrent_person_requests=%d\n"+
		"max_concurrent_relationship_requests=%d\n"+
		"strict=%t\n",
		s.DefaultStartID, s.HopCount, s.RequestsPerSecond, s.PersonBatchSize,
		s.MaxConcurrentPersonRequests, s.MaxConcurrentRelationshipReqs, s.Strict)
	return err
}
