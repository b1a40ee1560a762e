// Package config loads the YAML configuration for the gitstitch and
// gitfilter command-line drivers: which repositories to stitch together,
// and which blob filter rules to apply.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"
	yaml "gopkg.in/yaml.v2"
)

// DefaultBranch is the branch name assumed for a repository spec that
// doesn't name one.
const DefaultBranch = "master"

// RepoSpec names one repository to export and, for secondaries, the
// subdirectory prefix and ref suffix to disambiguate it by.
type RepoSpec struct {
	Path   string `yaml:"path"`
	Name   string `yaml:"name"`
	Branch string `yaml:"branch"`
}

// FilterRule selects which blob paths to run through an external filter
// command, and bounds how large a blob it will be applied to. A path
// matches the rule when it ends, case-insensitively, in a dot followed by
// one of Extensions; an empty Extensions list matches every path.
type FilterRule struct {
	Extensions []string `yaml:"extensions"`
	MaxBytes   int      `yaml:"max_bytes"`
	Command    string   `yaml:"command"`

	Argv []string
}

// MatchesPath reports whether path's extension is in r.Extensions
// (case-insensitive), or whether r.Extensions is empty.
func (r *FilterRule) MatchesPath(path string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range r.Extensions {
		if len(lower) > len(ext) && strings.HasSuffix(lower, ext) && lower[len(lower)-len(ext)-1] == '.' {
			return true
		}
	}
	return false
}

// Config is the top-level document for both cmd/gitstitch and
// cmd/gitfilter; each driver only reads the fields it needs.
type Config struct {
	MoveToSubdirs bool         `yaml:"move_to_subdirs"`
	Main          RepoSpec     `yaml:"main"`
	Secondary     []RepoSpec   `yaml:"secondary"`
	FilterRules   []FilterRule `yaml:"filter_rules"`
}

// Unmarshal parses config, filling in default branch names and
// validating every filter rule's extension list and filter command.
func Unmarshal(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v. make sure to use 'single quotes' around strings with special characters (like match patterns)", err.Error())
	}
	if cfg.Main.Branch == "" {
		cfg.Main.Branch = DefaultBranch
	}
	for i := range cfg.Secondary {
		if cfg.Secondary[i].Branch == "" {
			cfg.Secondary[i].Branch = DefaultBranch
		}
		if cfg.Secondary[i].Name == "" {
			cfg.Secondary[i].Name = baseName(cfg.Secondary[i].Path)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML config document from filename.
func LoadFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	cfg, err := Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Main.Path == "" {
		return fmt.Errorf("main repository path must be set")
	}
	for _, s := range c.Secondary {
		if s.Path == "" {
			return fmt.Errorf("secondary repository path must be set")
		}
	}
	for i := range c.FilterRules {
		r := &c.FilterRules[i]
		for j, ext := range r.Extensions {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if ext == "" {
				return fmt.Errorf("filter rule %d: extension %d is empty", i, j)
			}
			r.Extensions[j] = ext
		}

		if r.Command == "" {
			return fmt.Errorf("filter rule %d: command must be set", i)
		}
		argv, err := shlex.Split(r.Command)
		if err != nil {
			return fmt.Errorf("filter rule %d: failed to parse command %q: %v", i, r.Command, err)
		}
		if len(argv) == 0 {
			return fmt.Errorf("filter rule %d: command is empty", i)
		}
		r.Argv = argv
	}
	return nil
}

// SplitForFile expands the %f placeholder in the rule's command template
// with path and splits the result into argv, shell-style.
func (r *FilterRule) SplitForFile(path string) ([]string, error) {
	return shlex.Split(strings.ReplaceAll(r.Command, "%f", path))
}

func baseName(path string) string {
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
