package config

import (
	"fmt"
	"os"

	"github.com/jinzhu/configor"
)

// ConfigurationError is fatal and aborts the run before any network call.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// Config holds everything a deploy run needs beyond the CLI arguments.
// Values come from an optional deployer.yml, DEPLOYER_* environment
// variables and the declared defaults, in configor's usual order.
type Config struct {
	// Bucket is the shared bucket holding one prefix per deployment.
	Bucket  string `default:"yari"`
	Region  string
	Profile string

	// Name is the deployment prefix. When empty it is derived from the
	// current git branch as <username>-<branchname>.
	Name string

	// Concurrency bounds parallel hash checks and uploads. Too many
	// workers can saturate the network and slow the run down.
	Concurrency int `default:"50"`

	// Cache-Control max-age in seconds for regular objects and for
	// objects whose filenames carry a content digest.
	DefaultCacheControl int `default:"3600"`
	HashedCacheControl  int `default:"31536000"`

	// Excludes are doublestar patterns matched against slash-normalized
	// relative paths, for build-system junk like checksum sidecars.
	Excludes []string

	// Substitutions maps file-system folder names to the key segment
	// they should deploy as. The table must stay injective; collisions
	// between substituted paths abort the run.
	Substitutions map[string]string

	Notify struct {
		// Topic is an SNS topic ARN; when set, a run with failed
		// uploads publishes its failed-key summary there.
		Topic string
	}
}

// Load reads the config file (if it exists) and applies environment
// overrides. An empty path means "deployer.yml next to the cwd, if any".
func Load(path string) (*Config, error) {
	var cfg Config

	loader := configor.New(&configor.Config{ENVPrefix: "DEPLOYER", Silent: true})

	files := []string{}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, &ConfigurationError{Msg: fmt.Sprintf("config file %s: %v", path, err)}
		}
		files = append(files, path)
	} else if _, err := os.Stat("deployer.yml"); err == nil {
		files = append(files, "deployer.yml")
	}

	if err := loader.Load(&cfg, files...); err != nil {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("load config: %v", err)}
	}

	return &cfg, nil
}

// Validate checks invariants that must hold before any network call.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return &ConfigurationError{Msg: "bucket name must not be empty"}
	}
	if c.Concurrency <= 0 {
		return &ConfigurationError{Msg: "concurrency must be positive"}
	}
	if c.DefaultCacheControl < 0 || c.HashedCacheControl < 0 {
		return &ConfigurationError{Msg: "cache-control seconds must not be negative"}
	}
	return nil
}
