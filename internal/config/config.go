// Package config loads the jjline configuration.
//
// A config file is read as TOML or YAML depending on its extension, overlaid with
// JJLINE__ environment variables, and decoded into the module list and the global
// prompt settings. A missing file is not an error: every setting has a default.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/zhubert/jjline/internal/bookmarks"
	"github.com/zhubert/jjline/internal/errors"
	"github.com/zhubert/jjline/internal/logger"
	"github.com/zhubert/jjline/internal/module"
)

// FileName is the config file looked up in the config directory.
const FileName = "jjline.toml"

// DefaultSearchDepth bounds the nearest-bookmark search when unset.
const DefaultSearchDepth = 100

// Config is the decoded configuration for one prompt invocation.
type Config struct {
	Modules         []module.Module
	ModuleSeparator string
	// Timeout is zero when no watchdog should run.
	Timeout    time.Duration
	ResetColor bool
	Bookmarks  bookmarks.Options

	// Path is the file the config came from, empty when defaults were used.
	Path string
}

// file is the top level of a config document. Modules are decoded separately
// because their fields depend on their type.
type file struct {
	ModuleSeparator *string          `toml:"module_separator"`
	Timeout         *int             `toml:"timeout"`
	ResetColor      *bool            `toml:"reset_color"`
	Bookmarks       bookmarkTable    `toml:"bookmarks"`
	Module          []map[string]any `toml:"module"`
}

type bookmarkTable struct {
	SearchDepth *int     `toml:"search_depth"`
	Exclude     []string `toml:"exclude"`
}

// Options selects where configuration comes from.
type Options struct {
	// Path is the config file. Empty means Path().
	Path string
	// DotEnv is a .env file whose variables apply beneath the real
	// environment. Empty or missing is ignored.
	DotEnv string
	// Environ overrides the process environment, mainly for tests.
	Environ []string
}

// Dir returns the directory holding the config file: $XDG_CONFIG_HOME/jjline,
// falling back to ~/.config/jjline.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jjline"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jjline"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Modules:         module.Defaults(),
		ModuleSeparator: " ",
		ResetColor:      true,
		Bookmarks:       bookmarks.Options{SearchDepth: DefaultSearchDepth},
	}
}

// Load reads, overlays and decodes the configuration.
func Load(opts Options) (*Config, error) {
	path := opts.Path
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, errors.ConfigLoadFailed("config directory", err)
		}
		path = p
	}
	log := logger.ComponentLogger("config")

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case stderrors.Is(err, os.ErrNotExist):
		log.Debug("no config file, using defaults", "path", path)
		path = ""
	case err != nil:
		return nil, errors.ConfigLoadFailed(path, err)
	default:
		if doc, err = parse(path, data); err != nil {
			return nil, errors.ConfigLoadFailed(path, err)
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	vars, err := readDotEnv(opts.DotEnv)
	if err != nil {
		return nil, errors.ConfigLoadFailed(opts.DotEnv, err)
	}
	vars = append(vars, environ...)
	if err := applyEnv(doc, vars); err != nil {
		return nil, err
	}
	normalizeColors(doc)

	cfg, err := decode(doc)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug("config loaded", "path", path, "modules", len(cfg.Modules))
	return cfg, nil
}

// parse reads a document into a generic map by file extension.
func parse(path string, data []byte) (map[string]any, error) {
	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// decodeInto re-encodes part of a document as TOML and decodes it strictly into
// v, so that one decoder applies regardless of the source format.
func decodeInto(part map[string]any, v any) error {
	data, err := toml.Marshal(part)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decode(doc map[string]any) (*Config, error) {
	cfg := Default()

	var f file
	if err := decodeInto(doc, &f); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	if f.ModuleSeparator != nil {
		cfg.ModuleSeparator = *f.ModuleSeparator
	}
	if f.Timeout != nil {
		if *f.Timeout < 0 {
			return nil, errors.ConfigInvalid(fmt.Sprintf("timeout must not be negative, got %d", *f.Timeout))
		}
		cfg.Timeout = time.Duration(*f.Timeout) * time.Millisecond
	}
	if f.ResetColor != nil {
		cfg.ResetColor = *f.ResetColor
	}
	if f.Bookmarks.SearchDepth != nil {
		cfg.Bookmarks.SearchDepth = *f.Bookmarks.SearchDepth
	}
	exclude, err := bookmarks.CompileExclude(f.Bookmarks.Exclude)
	if err != nil {
		return nil, err
	}
	cfg.Bookmarks.Exclude = exclude

	if f.Module != nil {
		cfg.Modules = make([]module.Module, 0, len(f.Module))
		for i, raw := range f.Module {
			m, err := decodeModule(raw)
			if err != nil {
				return nil, errors.ConfigInvalid(fmt.Sprintf("module %d: %v", i+1, err))
			}
			cfg.Modules = append(cfg.Modules, m)
		}
	}
	return cfg, nil
}

func decodeModule(raw map[string]any) (module.Module, error) {
	typ, _ := raw["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("missing type")
	}
	m, err := module.New(typ)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "type" {
			fields[k] = v
		}
	}
	if err := decodeInto(fields, m); err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	return m, nil
}

// Validate checks settings that decode cleanly but make no sense.
func (c *Config) Validate() error {
	if c.Bookmarks.SearchDepth < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("bookmarks.search_depth must not be negative, got %d", c.Bookmarks.SearchDepth))
	}
	for _, m := range c.Modules {
		if b, ok := m.(*module.Bookmarks); ok && b.MaxBookmarks < 0 {
			return errors.ConfigInvalid(fmt.Sprintf("max_bookmarks must not be negative, got %d", b.MaxBookmarks))
		}
	}
	return nil
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether it wrote anything.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, errors.E(errors.Op("config.WriteDefault"), errors.KindIO, err)
	}
	if err := os.WriteFile(path, []byte(DefaultTOML), 0644); err != nil {
		return false, errors.E(errors.Op("config.WriteDefault"), errors.KindIO, err)
	}
	return true, nil
}
