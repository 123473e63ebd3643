// Package config resolves snakedoc settings from pyproject.toml, the
// environment, and built-in defaults, and owns the on-disk cache layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the fully resolved project configuration. Values come from the
// [tool.snakedoc] table of pyproject.toml, overridable through SNAKEDOC_*
// environment variables.
type Config struct {
	Directory      string   `mapstructure:"-" json:"directory"`
	Modules        []string `mapstructure:"modules" json:"modules"`
	OutputDir      string   `mapstructure:"output_dir" json:"output_dir"`
	Port           int      `mapstructure:"port" json:"port"`
	Host           string   `mapstructure:"host" json:"host"`
	Title          string   `mapstructure:"title" json:"title"`
	Python         string   `mapstructure:"python" json:"python"`
	DocstringStyle string   `mapstructure:"docstring_style" json:"docstring_style"`
	ExcludeSource  bool     `mapstructure:"exclude_source" json:"exclude_source"`
	ExternalLinks  bool     `mapstructure:"external_links" json:"external_links"`
	TemplatesDir   string   `mapstructure:"templates_dir" json:"templates_dir"`
	ExcludeModules []string `mapstructure:"exclude_modules" json:"exclude_modules"`
}

// Load reads configFile (usually pyproject.toml) from directory. A missing
// file is fine; defaults and environment variables still apply. When no
// modules are configured anywhere, the project's package name is detected
// from pyproject.toml or setup.py.
func Load(directory, configFile string) (*Config, error) {
	v := viper.New()
	path := filepath.Join(directory, configFile)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("tool.snakedoc.modules", []string{})
	v.SetDefault("tool.snakedoc.output_dir", "site")
	v.SetDefault("tool.snakedoc.port", 8000)
	v.SetDefault("tool.snakedoc.host", "127.0.0.1")
	v.SetDefault("tool.snakedoc.title", "")
	v.SetDefault("tool.snakedoc.python", "python3")
	v.SetDefault("tool.snakedoc.docstring_style", "auto")
	v.SetDefault("tool.snakedoc.exclude_source", false)
	v.SetDefault("tool.snakedoc.external_links", false)
	v.SetDefault("tool.snakedoc.templates_dir", "")
	v.SetDefault("tool.snakedoc.exclude_modules", []string{})

	v.SetEnvPrefix("SNAKEDOC")
	// The replacer sees the uppercased key with the prefix already
	// attached, so SNAKEDOC_TOOL.SNAKEDOC.PORT becomes SNAKEDOC_PORT.
	v.SetEnvKeyReplacer(strings.NewReplacer("TOOL.SNAKEDOC.", "", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	settings := map[string]interface{}{}
	if tool, ok := v.AllSettings()["tool"].(map[string]interface{}); ok {
		if sub, ok := tool["snakedoc"].(map[string]interface{}); ok {
			settings = sub
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToSliceHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Directory = directory

	if len(cfg.Modules) == 0 {
		cfg.Modules = detectModules(v, directory)
	}

	return &cfg, nil
}

// stringToSliceHookFunc lets scalar TOML values stand in for single-element
// lists, so `modules = "mypackage"` works.
func stringToSliceHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf([]string{}) || f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}
}

var setupPackagesRe = regexp.MustCompile(`packages\s*=\s*\[\s*['"]([^'"]+)['"]`)

// detectModules guesses the package to document: the PEP 621 project name,
// then flit's module, then the first packages entry in setup.py.
func detectModules(v *viper.Viper, directory string) []string {
	if name := v.GetString("project.name"); name != "" {
		return []string{normalizeModule(name)}
	}
	if name := v.GetString("tool.flit.metadata.module"); name != "" {
		return []string{normalizeModule(name)}
	}
	data, err := os.ReadFile(filepath.Join(directory, "setup.py"))
	if err != nil {
		return nil
	}
	if m := setupPackagesRe.FindSubmatch(data); m != nil {
		return []string{normalizeModule(string(m[1]))}
	}
	return nil
}

// normalizeModule maps a distribution name to the importable module name.
func normalizeModule(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// cacheBase returns the base cache directory for snakedoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/snakedoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "snakedoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "snakedoc")
	}
	return filepath.Join(os.TempDir(), "snakedoc")
}

// DBPath returns the path to the documentation index database.
func DBPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

// DumpCacheDir returns the directory holding compressed extraction dumps.
func DumpCacheDir() string {
	return filepath.Join(cacheBase(), "dumps")
}

// LogPath returns the path to the MCP server's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "mcp.log")
}
