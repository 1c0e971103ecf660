// Package config loads rpm-tool's YAML configuration file: pool size,
// the useful-files regex, and where structured logs go.
package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"

	"gopkg.in/yaml.v3"
)

// RepodataConfig controls the index engine.
type RepodataConfig struct {
	Concurrency  int     `yaml:"concurrency"`
	UsefulFiles  *Regexp `yaml:"useful_files"`
	ParallelGzip bool    `yaml:"parallel_gzip"`
}

// LogConfig selects where structured events go.
type LogConfig struct {
	Target string `yaml:"target"`
	Level  string `yaml:"level"`
}

// SignConfig names the GPG key repomd.xml is signed with. KeyPath and
// PassphraseEnv let a repository's signing key live in the config file
// instead of being passed on every `repository generate` invocation;
// --gpg-key/--gpg-passphrase on the command line still take precedence
// when given.
type SignConfig struct {
	KeyPath       string `yaml:"gpg_key"`
	PassphraseEnv string `yaml:"gpg_passphrase_env"`
}

// Config is the top-level YAML document.
type Config struct {
	Repodata RepodataConfig `yaml:"repodata"`
	Log      LogConfig      `yaml:"log"`
	Sign     SignConfig     `yaml:"sign"`
}

// Regexp wraps *regexp.Regexp so it can be unmarshaled directly from a
// YAML scalar, the way original_source's serde_regex lets useful_files be
// written as a plain pattern string in the config file.
type Regexp struct {
	*regexp.Regexp
}

func (r *Regexp) UnmarshalYAML(value *yaml.Node) error {
	var pattern string
	if err := value.Decode(&pattern); err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("config: useful_files: %w", err)
	}
	r.Regexp = re
	return nil
}

func (r *Regexp) MarshalYAML() (interface{}, error) {
	if r == nil || r.Regexp == nil {
		return "", nil
	}
	return r.String(), nil
}

// Default returns the configuration rpm-tool runs with when no --config
// file is given: one worker per logical CPU as reported by runtime.NumCPU
// (not the physical core count), syslog target, info level, single-threaded
// gzip.
func Default() *Config {
	return &Config{
		Repodata: RepodataConfig{
			Concurrency: runtime.NumCPU(),
		},
		Log: LogConfig{
			Target: "syslog",
			Level:  "info",
		},
	}
}

// Read loads and validates the YAML file at path, filling in defaults for
// any option the file leaves unset.
func Read(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Repodata.Concurrency < 0 {
		return fmt.Errorf("config: repodata.concurrency must be >= 0")
	}
	switch c.Log.Target {
	case "", "syslog", "stdout":
	default:
		return fmt.Errorf("config: log.target must be \"syslog\" or \"stdout\", got %q", c.Log.Target)
	}
	return nil
}
