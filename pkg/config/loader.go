package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/go-homedir"
	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("config:loader")

// ParseFile decodes one YAML file into a Value. Decode errors are wrapped
// as a *ParseError rather than returned raw, so callers can collect them
// into a Report without aborting discovery.
func ParseFile(path string) (Value, *ParseError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, &ParseError{File: path, Message: err.Error(), Cause: err}
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Value{}, newParseError(path, err)
	}
	return NewValue(normalize(raw)), nil
}

// normalize converts goccy/go-yaml's map[any]any-shaped output (for
// non-string keys) into map[string]any so Value.Map can type-assert
// uniformly; goccy already decodes mapping keys as strings in the common
// case, this only guards the scalar-key edge cases.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// DiscoveryPaths returns the ordered list of config files omni reads before
// merging, per spec.md §6 (later entries override earlier ones). Paths
// that don't exist are omitted by LoadAll, not by this function — callers
// that want the full search list regardless of existence use this
// directly.
func DiscoveryPaths(workdirRoot string) []string {
	var paths []string

	paths = append(paths, "/etc/omni/pre.yaml")
	paths = append(paths, globSorted("/etc/omni/pre.d/*.yaml")...)

	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, ".omni.yaml"))
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		paths = append(paths, filepath.Join(xdgConfig, "omni.yaml"))
	}
	paths = append(paths, filepath.Join(configHome(), "config.yaml"))
	if extra := os.Getenv("OMNI_CONFIG"); extra != "" {
		paths = append(paths, extra)
	}

	paths = append(paths, "/etc/omni/post.yaml")
	paths = append(paths, globSorted("/etc/omni/post.d/*.yaml")...)

	if workdirRoot != "" {
		paths = append(paths, filepath.Join(workdirRoot, ".omni.yaml"))
		paths = append(paths, filepath.Join(workdirRoot, ".omni", "config.yaml"))
	}

	return paths
}

// UserConfigPath returns the global config file `--update-user-config`
// writes accepted bootstrap suggestions into (spec.md §6), the last entry
// in DiscoveryPaths' user-scope group so it also takes effect on the next
// load.
func UserConfigPath() string {
	return filepath.Join(configHome(), "config.yaml")
}

// RepoConfigPath returns the repo-local config file `--update-repository`
// writes accepted bootstrap suggestions into.
func RepoConfigPath(workdirRoot string) string {
	return filepath.Join(workdirRoot, ".omni.yaml")
}

// WriteYAML serializes v as YAML to path, creating parent directories as
// needed. Since the concrete YAML schema is out of scope (spec.md §1),
// this only round-trips whatever opaque tree v already holds rather than
// assuming any particular shape.
func WriteYAML(path string, v Value) error {
	data, err := yaml.Marshal(v.Raw())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// configHome resolves $XDG_CONFIG_HOME/omni, defaulting to ~/.config/omni.
func configHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "omni")
	}
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".", ".config", "omni")
	}
	return filepath.Join(home, ".config", "omni")
}

// DataHome resolves $XDG_DATA_HOME/omni, defaulting to ~/.local/share/omni.
func DataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "omni")
	}
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "omni")
	}
	return filepath.Join(home, ".local", "share", "omni")
}

// CacheHome resolves $XDG_CACHE_HOME/omni, defaulting to ~/.cache/omni.
func CacheHome() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "omni")
	}
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".", ".cache", "omni")
	}
	return filepath.Join(home, ".cache", "omni")
}

func globSorted(pattern string) []string {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// LoadAll reads every existing file in DiscoveryPaths(workdirRoot) and
// merges them in order, later files overriding earlier ones via the
// extension-suffix DAG (see merge.go). Missing files are silently skipped;
// malformed files are collected into the returned Report instead of
// aborting the whole load.
func LoadAll(workdirRoot string) (Value, *Report) {
	report := &Report{}
	merged := NewValue(map[string]any{})

	for _, path := range DiscoveryPaths(workdirRoot) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		log.Printf("loading config file %s", path)
		v, perr := ParseFile(path)
		if perr != nil {
			report.Add(perr)
			continue
		}
		merged = Merge(merged, v, StrategyDefault)
	}

	return merged, report
}

// isYAMLFile reports whether a path looks like a YAML config file, by its
// .yaml/.yml extension. Nothing in the package calls it at present.
func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
