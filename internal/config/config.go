// Package config provides configuration management for the osmclean tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidField          = errors.New("invalid configuration field")
	ErrEmptyKeyAlias         = errors.New("rules.key_aliases entries need a non-empty key and target")
	ErrKeyAliasChain         = errors.New("rules.key_aliases target is itself an alias source")
	ErrValueAliasReintroduce = errors.New("rules.value_aliases replacement contains an alias pattern")
	ErrDuplicateMultiField   = errors.New("rules.multi_fields contains a duplicate prefix")
)

// Config represents the complete tool configuration.
type Config struct {
	Rules    RulesConfig    `yaml:"rules"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Audit    AuditConfig    `yaml:"audit"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// RulesConfig holds the tag rewrite tables and the multi-field prefixes.
type RulesConfig struct {
	KeyAliases   map[string]string `yaml:"key_aliases"`
	ValueAliases []Alias           `yaml:"value_aliases" validate:"dive"`
	MultiFields  []string          `yaml:"multi_fields" validate:"dive,required"`
}

// Alias is one substring substitution applied to tag values, in list order.
type Alias struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to"`
}

// AuditConfig drives the attribute audit pass.
type AuditConfig struct {
	SpecialChars string    `yaml:"special_chars"`
	SkipElements []string  `yaml:"skip_elements"`
	Types        TypeTable `yaml:"types"`
}

// TypeTable assigns attribute names to type buckets.
// An attribute listed in several buckets takes the first one in field order.
type TypeTable struct {
	Int       []string `yaml:"int"`
	Float     []string `yaml:"float"`
	Timestamp []string `yaml:"timestamp"`
	String    []string `yaml:"string"`
	Unaudited []string `yaml:"unaudited"`
}

// PipelineConfig controls projection of elements into documents.
type PipelineConfig struct {
	Elements                   []string `yaml:"elements" validate:"min=1,dive,required"`
	Workers                    int      `yaml:"workers" validate:"min=1"`
	BatchSize                  int      `yaml:"batch_size" validate:"min=1"`
	RewriteCacheSize           int      `yaml:"rewrite_cache_size" validate:"min=0"`
	ContinueOnProjectionErrors bool     `yaml:"continue_on_projection_errors"`
}

// OutputConfig defines where results go.
type OutputConfig struct {
	Path        string `yaml:"path"`
	ReportPath  string `yaml:"report_path"`
	MetricsPath string `yaml:"metrics_path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Reference returns the rule set the tools were built against.
func Reference() *Config {
	return &Config{
		Rules: RulesConfig{
			KeyAliases: map[string]string{
				"endereço": "addr:street",
				"Futsal":   "sport",
			},
			ValueAliases: []Alias{
				{From: "Cond.", To: "Condomínio "},
				{From: "Av.", To: "Avenida "},
				{From: "AV.", To: "Avenida "},
				{From: "Ed.", To: "Edifício "},
				{From: "ED.", To: "Edifício "},
				{From: "A.E.", To: "Área Especial "},
				{From: "Bl.", To: "Bloco "},
				{From: "BL.", To: "Bloco "},
				{From: "Qd.", To: "Quadra "},
				{From: "Q. ", To: "Quadra "},
				{From: "Conj.", To: "Conjunto "},
				{From: "Cj.", To: "Conjunto "},
				{From: "Ch.", To: "Chácara "},
				{From: "Lt.", To: "Lote "},
			},
			MultiFields: []string{"sport", "building:levels", "landuse", "natural", "leisure", "surface", "water"},
		},
		Audit: AuditConfig{
			Types: TypeTable{
				Int:       []string{"id", "version", "changeset", "uid", "ref"},
				Float:     []string{"lat", "lon"},
				Timestamp: []string{"timestamp"},
				String:    []string{"type", "role", "k", "user"},
				Unaudited: []string{"v"},
			},
			SpecialChars: "!\"#$%&'()*+,./;<=>?@[\\]^`{|}~ç\t\r\n",
			SkipElements: []string{"osm", "note", "meta", "bounds"},
		},
		Pipeline: defaultPipeline(),
		Logging:  LoggingConfig{Level: "info"},
	}
}

func defaultPipeline() PipelineConfig {
	return PipelineConfig{
		Elements:         []string{"node", "way", "relation"},
		Workers:          1,
		BatchSize:        256,
		RewriteCacheSize: 4096,
	}
}

// LoadConfig loads configuration from a YAML file.
// Rule tables are taken as written; pipeline and logging fields left empty get defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := defaultPipeline()

	if len(c.Pipeline.Elements) == 0 {
		c.Pipeline.Elements = def.Elements
	}

	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = def.Workers
	}

	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = def.BatchSize
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	for from, to := range c.Rules.KeyAliases {
		if from == "" || to == "" {
			return ErrEmptyKeyAlias
		}

		if _, chained := c.Rules.KeyAliases[to]; chained {
			return fmt.Errorf("%w: %q -> %q", ErrKeyAliasChain, from, to)
		}
	}

	for _, a := range c.Rules.ValueAliases {
		for _, other := range c.Rules.ValueAliases {
			if strings.Contains(a.To, other.From) {
				return fmt.Errorf("%w: %q contains %q", ErrValueAliasReintroduce, a.To, other.From)
			}
		}
	}

	seen := make(map[string]bool, len(c.Rules.MultiFields))
	for _, f := range c.Rules.MultiFields {
		if seen[f] {
			return fmt.Errorf("%w: %q", ErrDuplicateMultiField, f)
		}

		seen[f] = true
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{KeyAliases: %d, ValueAliases: %d, MultiFields: %d, Workers: %d}",
		len(c.Rules.KeyAliases),
		len(c.Rules.ValueAliases),
		len(c.Rules.MultiFields),
		c.Pipeline.Workers,
	)
}

// LoadOrReference loads the file at path, or returns the reference configuration when path is empty.
func LoadOrReference(path string) (*Config, error) {
	if path == "" {
		return Reference(), nil
	}

	return LoadConfig(path)
}
