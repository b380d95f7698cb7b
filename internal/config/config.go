// Package config loads the arbor.yaml project file used by the CLI: storage
// backend settings, editor defaults and the component catalog.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the document directory.
const FileName = "arbor.yaml"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendLoam   = "loam"
)

// Config is the decoded project file.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`

	Components []ComponentConfig `mapstructure:"components"`

	PageType     string        `mapstructure:"page_type"`
	HistoryLimit *int          `mapstructure:"history_limit"`
	Autosave     time.Duration `mapstructure:"autosave"`

	// EncryptionKey enables AES-GCM encryption at rest (32 bytes, hex or base64).
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys are tried on load after a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// Redact lists regular expressions masked in string props before saving.
	Redact []string `mapstructure:"redact"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Format  string `mapstructure:"format"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ComponentConfig declares one component type.
//
// Props maps prop names to type expressions understood by schema.ParseType.
// At most one of Text, Container and Variable sets the default children.
type ComponentConfig struct {
	Type      string            `mapstructure:"type"`
	Props     map[string]string `mapstructure:"props"`
	Defaults  map[string]any    `mapstructure:"defaults"`
	Text      *string           `mapstructure:"text"`
	Container bool              `mapstructure:"container"`
	Variable  string            `mapstructure:"variable"`
	Bindings  map[string]string `mapstructure:"bindings"`
}

// Default returns the configuration used when no project file exists.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     ".",
			Format:  "json",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		SQLite: SQLiteConfig{
			Path: "arbor.db",
		},
		PageType: "div",
	}
}

// Find returns the project file inside dir, or "" when there is none.
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Load reads the project file at path. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default(). Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("invalid yaml: %w", err)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite, BackendLoam:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	seen := make(map[string]bool, len(c.Components))
	for i, comp := range c.Components {
		if comp.Type == "" {
			return fmt.Errorf("components[%d]: type is required", i)
		}
		if seen[comp.Type] {
			return fmt.Errorf("components[%d]: duplicate type %q", i, comp.Type)
		}
		seen[comp.Type] = true
	}
	return nil
}

// ComponentRegistry builds the component catalog. Without configured
// components it falls back to DefaultComponents.
func (c Config) ComponentRegistry() (*registry.Components, error) {
	if len(c.Components) == 0 {
		return registry.NewComponents(DefaultComponents()...), nil
	}
	var errs []error
	reg := registry.NewComponents()
	for _, cc := range c.Components {
		comp, err := cc.Component()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reg.Register(comp)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

// Component converts the declaration into a registry entry.
func (cc ComponentConfig) Component() (registry.Component, error) {
	props, err := schema.ParseTypeMap(cc.Props)
	if err != nil {
		return registry.Component{}, fmt.Errorf("component %s: %w", cc.Type, err)
	}

	for field, value := range cc.Defaults {
		t, ok := props[field]
		if !ok {
			t = schema.Any()
		}
		if err := t.Validate(value); err != nil {
			return registry.Component{}, fmt.Errorf("component %s: default for %s: %w", cc.Type, field, err)
		}
		props[field] = schema.WithDefault(t, value)
	}

	comp := registry.Component{Type: cc.Type, Props: props}

	set := 0
	if cc.Text != nil {
		comp.DefaultChildren = domain.TextChildren(*cc.Text)
		set++
	}
	if cc.Container {
		comp.DefaultChildren = domain.LayerChildren()
		set++
	}
	if cc.Variable != "" {
		comp.DefaultChildren = domain.VariableChildren(cc.Variable)
		set++
	}
	if set > 1 {
		return registry.Component{}, fmt.Errorf("component %s: text, container and variable are exclusive", cc.Type)
	}

	names := make([]string, 0, len(cc.Bindings))
	for prop := range cc.Bindings {
		names = append(names, prop)
	}
	sort.Strings(names)
	for _, prop := range names {
		comp.DefaultVariableBindings = append(comp.DefaultVariableBindings, registry.VariableBinding{
			PropName:   prop,
			VariableID: cc.Bindings[prop],
		})
	}
	return comp, nil
}

// DefaultComponents is a small HTML-like catalog for projects without one.
func DefaultComponents() []registry.Component {
	return []registry.Component{
		{
			Type:            "div",
			Props:           schema.Schema{"className": schema.WithDefault(schema.String(), "")},
			DefaultChildren: domain.LayerChildren(),
		},
		{
			Type:            "span",
			DefaultChildren: domain.TextChildren("Text"),
		},
		{
			Type: "Button",
			Props: schema.Schema{
				"variant":  schema.WithDefault(schema.Enum("primary", "secondary", "ghost"), "primary"),
				"disabled": schema.WithDefault(schema.Boolean(), false),
			},
			DefaultChildren: domain.TextChildren("Button"),
		},
		{
			Type: "Image",
			Props: schema.Schema{
				"src": schema.WithDefault(schema.String(), ""),
				"alt": schema.WithDefault(schema.String(), ""),
			},
		},
		{
			Type: "Input",
			Props: schema.Schema{
				"placeholder": schema.WithDefault(schema.String(), ""),
				"onChange":    schema.Optional(schema.Function()),
			},
		},
	}
}
