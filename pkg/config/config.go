// Package config holds the compiler driver's settings. Defaults can be
// overridden by a YAML file and then by command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"milang/pkg/optimize"
)

const (
	DefaultIntermediateSuffix = "_intermediate.txt"
	DefaultOptimizedSuffix    = "_optimized.txt"
)

// Config is the driver configuration. Fields absent from a YAML file keep
// their defaults.
type Config struct {
	OutDir             string   `yaml:"out_dir"`             // empty: next to the input
	IntermediateSuffix string   `yaml:"intermediate_suffix"` // raw listing file suffix
	OptimizedSuffix    string   `yaml:"optimized_suffix"`    // optimized listing file suffix
	Passes             []string `yaml:"passes,omitempty"`    // nil: every pass
	Color              bool     `yaml:"color"`               // ANSI colors in the report
	List               bool     `yaml:"list"`                // print instruction tables
	Tree               string   `yaml:"tree"`                // PNG path for the syntax tree, empty: none
	TreeScale          int      `yaml:"tree_scale"`          // PNG pixel scale
	Run                bool     `yaml:"run"`                 // interpret the optimized code
	MaxSteps           int      `yaml:"max_steps"`           // interpreter step limit
}

func Default() Config {
	return Config{
		IntermediateSuffix: DefaultIntermediateSuffix,
		OptimizedSuffix:    DefaultOptimizedSuffix,
		Color:              true,
		TreeScale:          1,
		MaxSteps:           100000,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.IntermediateSuffix == "" || c.OptimizedSuffix == "" {
		errs = append(errs, errors.New("output suffixes must not be empty"))
	}
	if c.IntermediateSuffix == c.OptimizedSuffix {
		errs = append(errs, fmt.Errorf("intermediate and optimized suffixes are both %q", c.OptimizedSuffix))
	}
	if _, err := c.OptimizerPasses(); err != nil {
		errs = append(errs, err)
	}
	if c.TreeScale < 1 {
		errs = append(errs, fmt.Errorf("tree_scale must be at least 1, got %d", c.TreeScale))
	}
	if c.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps))
	}
	return errors.Join(errs...)
}

// OptimizerPasses resolves the configured pass names. No list means every
// pass; an empty list means none.
func (c Config) OptimizerPasses() ([]optimize.Pass, error) {
	if c.Passes == nil {
		return optimize.DefaultPasses, nil
	}
	return optimize.ParsePasses(c.Passes)
}

// OutputPaths returns where the raw and optimized listings for input go:
// <dir>/<base><suffix>, where base is the input file name without extension.
func (c Config) OutputPaths(input string) (intermediate, optimized string) {
	dir := c.OutDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+c.IntermediateSuffix), filepath.Join(dir, base+c.OptimizedSuffix)
}

// Marshal renders c as YAML, for writing a starter config file.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
