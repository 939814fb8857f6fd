// Package config loads engine settings from TOML or YAML files layered
// over built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/oarkflow/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	VM     VMConfig     `toml:"vm" yaml:"vm"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	JIT    JITConfig    `toml:"jit" yaml:"jit"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

type VMConfig struct {
	StackSize int `toml:"stack_size" yaml:"stack_size"`
	// InstructionLimit caps instructions per run; 0 is unlimited.
	InstructionLimit int `toml:"instruction_limit" yaml:"instruction_limit"`
	MaxCallDepth     int `toml:"max_call_depth" yaml:"max_call_depth"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	// StorePath enables the persistent bytecode store when set.
	StorePath string `toml:"store_path" yaml:"store_path"`
}

type JITConfig struct {
	Enabled     bool `toml:"enabled" yaml:"enabled"`
	MaxRoutines int  `toml:"max_routines" yaml:"max_routines"`
}

type ServerConfig struct {
	Addr        string `toml:"addr" yaml:"addr"`
	MaxSessions int    `toml:"max_sessions" yaml:"max_sessions"`
	BodyLimit   int    `toml:"body_limit" yaml:"body_limit"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

func Default() *Config {
	return &Config{
		VM:     VMConfig{StackSize: 1024, MaxCallDepth: 1000},
		Cache:  CacheConfig{Enabled: true},
		JIT:    JITConfig{Enabled: true, MaxRoutines: 1024},
		Server: ServerConfig{Addr: ":8090", MaxSessions: 256, BodyLimit: 1 << 20},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, or .yaml/.yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrapf(err, "parse error in %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse error in %s", path)
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.VM.StackSize <= 0 {
		return errors.New("vm.stack_size must be positive")
	}
	if c.VM.InstructionLimit < 0 {
		return errors.New("vm.instruction_limit must not be negative")
	}
	if c.VM.MaxCallDepth <= 0 {
		return errors.New("vm.max_call_depth must be positive")
	}
	if c.JIT.Enabled && c.JIT.MaxRoutines <= 0 {
		return errors.New("jit.max_routines must be positive")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxSessions <= 0 {
		return errors.New("server.max_sessions must be positive")
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

var levels = map[string]log.Level{
	"trace": log.TraceLevel,
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
}

// Logger builds a logger at the configured level writing to stderr.
func (c LogConfig) Logger() *log.Logger {
	level, ok := levels[strings.ToLower(c.Level)]
	if !ok {
		level = log.InfoLevel
	}
	return &log.Logger{
		Level:  level,
		Writer: &log.IOWriter{Writer: os.Stderr},
	}
}
