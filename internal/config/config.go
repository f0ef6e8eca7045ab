package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up when no path is given.
const FileName = "abilens.yaml"

// Config represents the abilens configuration.
type Config struct {
	Index  IndexConfig  `yaml:"index"`
	Types  TypesConfig  `yaml:"types"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
}

// IndexConfig controls which files are indexed and how many are parsed at once.
type IndexConfig struct {
	Include []string      `yaml:"include"`
	Exclude ExcludeConfig `yaml:"exclude"`
	Workers int           `yaml:"workers"`
}

// ExcludeConfig defines patterns to exclude from indexing.
type ExcludeConfig struct {
	Dirs      []string `yaml:"dirs"`
	FilesGlob []string `yaml:"files_glob"`
}

// TypesConfig tunes the Cairo type resolver.
type TypesConfig struct {
	// FeltAliases are extra type names resolved as felt.
	FeltAliases []string `yaml:"felt_aliases"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Include: []string{"**/*.json"},
			Exclude: ExcludeConfig{
				Dirs:      []string{".git", "node_modules", ".abilens"},
				FilesGlob: []string{"**/package.json", "**/tsconfig.json", "**/*.compiled_contract_class.json"},
			},
			Workers: 4,
		},
		Server: ServerConfig{Port: 8080},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{Dir: ".abilens"},
	}
}

// Load reads configuration from file, falling back to defaults.
// If configPath is empty, it looks for abilens.yaml in the current directory.
// Values set in the file replace the matching defaults; lists are not merged.
func Load(configPath string) (*Config, error) {
	defaults := Default()

	if configPath == "" {
		configPath = FileName
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	defaults.Merge(&fileCfg)
	return defaults, nil
}

// LoadFromDir loads configuration from the specified directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Merge combines another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Index.Include) > 0 {
		c.Index.Include = other.Index.Include
	}
	if len(other.Index.Exclude.Dirs) > 0 {
		c.Index.Exclude.Dirs = other.Index.Exclude.Dirs
	}
	if len(other.Index.Exclude.FilesGlob) > 0 {
		c.Index.Exclude.FilesGlob = other.Index.Exclude.FilesGlob
	}
	if other.Index.Workers > 0 {
		c.Index.Workers = other.Index.Workers
	}
	if len(other.Types.FeltAliases) > 0 {
		c.Types.FeltAliases = other.Types.FeltAliases
	}
	if other.Server.Port > 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Store.Dir != "" {
		c.Store.Dir = other.Store.Dir
	}
}

// IsExcludedDir checks if a directory should be excluded from indexing.
func (c *Config) IsExcludedDir(dir string) bool {
	base := filepath.Base(dir)
	for _, excluded := range c.Index.Exclude.Dirs {
		if base == excluded {
			return true
		}
	}
	return false
}

// IsIncludedFile reports whether relPath (slash separated, relative to the
// project root) matches an include glob and no exclude glob.
func (c *Config) IsIncludedFile(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range c.Index.Exclude.FilesGlob {
		if MatchGlob(pattern, relPath) {
			return false
		}
	}
	for _, pattern := range c.Index.Include {
		if MatchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// MatchGlob matches a slash separated path against a glob pattern.
// A leading "**/" matches any number of directories, including none, so
// "**/*.json" matches both "abi.json" and "target/dev/abi.json".
func MatchGlob(pattern, path string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		if matchSegments(rest, path) {
			return true
		}
		for i := 0; i < len(path); i++ {
			if path[i] == '/' && matchSegments(rest, path[i+1:]) {
				return true
			}
		}
		return false
	}
	return matchSegments(pattern, path)
}

func matchSegments(pattern, path string) bool {
	if i := strings.Index(pattern, "/**/"); i >= 0 {
		head := pattern[:i]
		n := strings.Count(head, "/") + 1
		parts := strings.SplitN(path, "/", n+1)
		if len(parts) <= n {
			return false
		}
		matched, err := filepath.Match(head, strings.Join(parts[:n], "/"))
		return err == nil && matched && MatchGlob(pattern[i+1:], parts[n])
	}
	matched, err := filepath.Match(pattern, path)
	return err == nil && matched
}
