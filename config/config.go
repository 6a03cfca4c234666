// Package config provides the run configuration of a chronal machine.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sarchlab/chronal/api"
	"github.com/sarchlab/chronal/isa"
	"gopkg.in/yaml.v3"
)

// Config describes one run. Paths are resolved against the directory of
// the file they were loaded from.
type Config struct {
	Program string `yaml:"program" toml:"program"`
	Samples string `yaml:"samples" toml:"samples"`

	Registers int     `yaml:"registers" toml:"registers"`
	Initial   []int64 `yaml:"initial" toml:"initial"`

	Optimize           bool   `yaml:"optimize" toml:"optimize"`
	IncrementAfterJump bool   `yaml:"increment_after_jump" toml:"increment_after_jump"`
	Budget             uint64 `yaml:"budget" toml:"budget"`
	Batch              int    `yaml:"batch" toml:"batch"`

	Log Log `yaml:"log" toml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Registers: 6,
		Optimize:  true,
		Batch:     4096,
		Log: Log{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a YAML or TOML configuration file, chosen by its extension,
// over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	c, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	c.Program = resolve(dir, c.Program)
	c.Samples = resolve(dir, c.Samples)
	c.Log.File = resolve(dir, c.Log.File)

	return c, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

// Parse decodes a configuration in the given format, "yaml", "yml" or
// "toml", over the defaults and validates it.
func Parse(data []byte, format string) (Config, error) {
	c := Default()

	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case "toml":
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return Config{}, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown key %s", undecoded[0])
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks the value ranges.
func (c Config) Validate() error {
	if c.Registers < 1 {
		return fmt.Errorf("registers must be positive, got %d", c.Registers)
	}

	if len(c.Initial) > c.Registers {
		return fmt.Errorf("%d initial values for %d registers", len(c.Initial), c.Registers)
	}

	if c.Batch < 1 {
		return fmt.Errorf("batch must be positive, got %d", c.Batch)
	}

	return c.Log.Validate()
}

// InitialRegisters returns the initial register file, zero padded.
func (c Config) InitialRegisters() isa.Registers {
	regs := isa.NewRegisters(c.Registers)
	copy(regs, isa.FromInt64s(c.Initial...))

	return regs
}

// DriverBuilder returns a driver builder set up for this configuration.
func (c Config) DriverBuilder() api.DriverBuilder {
	return api.NewDriverBuilder().
		WithRegisters(c.Registers).
		WithBatch(c.Batch).
		WithBudget(c.Budget).
		WithIncrementAfterJump(c.IncrementAfterJump)
}
