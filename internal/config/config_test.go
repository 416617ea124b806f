package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "yari", cfg.Bucket)
	assert.Equal(t, 50, cfg.Concurrency)
	assert.Equal(t, 3600, cfg.DefaultCacheControl)
	assert.Equal(t, 31536000, cfg.HashedCacheControl)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployer.yml")
	content := `
bucket: my-site
concurrency: 8
excludes:
  - "**/*.sha256"
substitutions:
  _star_: "*"
notify:
  topic: arn:aws:sns:us-east-1:123456789012:deploys
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-site", cfg.Bucket)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []string{"**/*.sha256"}, cfg.Excludes)
	assert.Equal(t, map[string]string{"_star_": "*"}, cfg.Substitutions)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:deploys", cfg.Notify.Topic)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty bucket", mutate: func(c *Config) { c.Bucket = "" }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: true},
		{name: "negative cache control", mutate: func(c *Config) { c.DefaultCacheControl = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Bucket: "b", Concurrency: 1}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				var cfgErr *ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
