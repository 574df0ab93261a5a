// Package config loads md-tree-updater settings from a YAML file, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/caffetsong/md-tree-updater/internal/document"
	"github.com/caffetsong/md-tree-updater/internal/filesystem"
)

const (
	// DefaultFile is the config file looked up when none is given.
	DefaultFile = "tree-config.yaml"
	// EnvPrefix prefixes every environment override, e.g. MDTREE_TARGET_FILE.
	EnvPrefix = "MDTREE"
)

// ErrConfigMissing is returned by Load, together with the default
// configuration, when the config file does not exist.
var ErrConfigMissing = errors.New("config file not found")

// Config holds the tool configuration.
type Config struct {
	Root             string `mapstructure:"root"`
	TargetFile       string `mapstructure:"target_file"`
	DescriptionsFile string `mapstructure:"descriptions_file"`
	IgnoreFile       string `mapstructure:"ignore_file"`
	StartMarker      string `mapstructure:"start_marker"`
	EndMarker        string `mapstructure:"end_marker"`
	UseGitignore     bool   `mapstructure:"gitignore"`
	GitRoot          bool   `mapstructure:"git_root"`
	LogLevel         string `mapstructure:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Root:             ".",
		TargetFile:       "README.md",
		DescriptionsFile: "tree-descriptions.yml",
		IgnoreFile:       ".treeignore",
		StartMarker:      document.StartMarker,
		EndMarker:        document.EndMarker,
		LogLevel:         "info",
	}
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"root":         "root",
	"target":       "target_file",
	"descriptions": "descriptions_file",
	"ignore":       "ignore_file",
	"gitignore":    "gitignore",
	"git-root":     "git_root",
	"log-level":    "log_level",
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("target_file", d.TargetFile)
	v.SetDefault("descriptions_file", d.DescriptionsFile)
	v.SetDefault("ignore_file", d.IgnoreFile)
	v.SetDefault("start_marker", d.StartMarker)
	v.SetDefault("end_marker", d.EndMarker)
	v.SetDefault("gitignore", d.UseGitignore)
	v.SetDefault("git_root", d.GitRoot)
	v.SetDefault("log_level", d.LogLevel)
}

// Load reads the config file at path and layers MDTREE_* environment
// variables and any changed flags on top. Precedence is flag, env, file,
// default. When the file is missing the returned config still carries env
// and flag values and the error is ErrConfigMissing.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var loadErr error
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
		loadErr = ErrConfigMissing
	} else {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, loadErr
}

// Validate checks that every path is set and the markers are usable.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"root", c.Root},
		{"target_file", c.TargetFile},
		{"descriptions_file", c.DescriptionsFile},
		{"ignore_file", c.IgnoreFile},
		{"start_marker", c.StartMarker},
		{"end_marker", c.EndMarker},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s must not be empty", f.name)
		}
	}
	if c.StartMarker == c.EndMarker {
		return fmt.Errorf("start_marker and end_marker must differ")
	}
	if strings.Contains(c.StartMarker, c.EndMarker) {
		return fmt.Errorf("start_marker must not contain end_marker")
	}
	return nil
}

// Markers returns the configured marker pair.
func (c *Config) Markers() document.Markers {
	return document.Markers{Start: c.StartMarker, End: c.EndMarker}
}

// Resolve returns a copy with absolute paths. Relative paths are taken from
// the working directory. With GitRoot set, the root becomes the enclosing
// git worktree and the other relative paths are taken from it instead.
func (c *Config) Resolve() (*Config, error) {
	out := *c

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", c.Root, err)
	}

	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if c.GitRoot {
		root, err = filesystem.RepoRoot(root)
		if err != nil {
			return nil, err
		}
		base = root
	}
	out.Root = root

	for _, p := range []*string{&out.TargetFile, &out.DescriptionsFile, &out.IgnoreFile} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	return &out, nil
}
