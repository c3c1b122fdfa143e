package server

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/FrameCheck/internal/errs"
)

// FileConfig is the on-disk shape of a server configuration document.
//
//	addr: ":8080"
//	request_timeout: 30s
//	log:
//	  level: info
//	  format: json
type FileConfig struct {
	Addr           string `yaml:"addr"`
	RequestTimeout string `yaml:"request_timeout"`
	Log            struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultFileConfig returns local-dev defaults.
func DefaultFileConfig() *FileConfig {
	cfg := &FileConfig{
		Addr:           ":8080",
		RequestTimeout: "30s",
	}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// LoadConfig reads a YAML configuration file. Fields absent from the
// document keep their defaults.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindNotFound, "read config file", err)
	}

	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
	}
	if cfg.Addr == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "config: addr must not be empty")
	}
	if _, err := time.ParseDuration(cfg.RequestTimeout); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "config: bad request_timeout", err)
	}
	return cfg, nil
}

// Timeout returns the parsed request timeout. LoadConfig guarantees the
// value parses; zero-value configs fall back to 30s.
func (c *FileConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
