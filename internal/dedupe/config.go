package dedupe

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds the weights and thresholds used by the scorer.
//
// Weights are relative and need not sum to 1; only the weights of fields
// present on both records contribute to a score.
type Config struct {
	// DuplicateThreshold is the score at or above which a pair is a duplicate.
	DuplicateThreshold float64 `json:"duplicateThreshold" yaml:"duplicate_threshold" mapstructure:"duplicate_threshold"`
	// PotentialDuplicateThreshold is the score at or above which a pair is
	// worth reviewing. Must not exceed DuplicateThreshold.
	PotentialDuplicateThreshold float64 `json:"potentialDuplicateThreshold" yaml:"potential_duplicate_threshold" mapstructure:"potential_duplicate_threshold"`

	NameWeight    float64 `json:"nameWeight" yaml:"name_weight" mapstructure:"name_weight"`
	PhoneWeight   float64 `json:"phoneWeight" yaml:"phone_weight" mapstructure:"phone_weight"`
	AddressWeight float64 `json:"addressWeight" yaml:"address_weight" mapstructure:"address_weight"`
	DomainWeight  float64 `json:"domainWeight" yaml:"domain_weight" mapstructure:"domain_weight"`

	// MinNameSimilarity floors name similarity: below it the name field
	// contributes 0.
	MinNameSimilarity float64 `json:"minNameSimilarity" yaml:"min_name_similarity" mapstructure:"min_name_similarity"`

	// PhoneMatchIsDuplicate classifies any pair with equal valid phone
	// numbers as a duplicate regardless of score.
	PhoneMatchIsDuplicate bool `json:"phoneMatchIsDuplicate" yaml:"phone_match_is_duplicate" mapstructure:"phone_match_is_duplicate"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DuplicateThreshold:          0.75,
		PotentialDuplicateThreshold: 0.60,
		NameWeight:                  0.35,
		PhoneWeight:                 0.30,
		AddressWeight:               0.20,
		DomainWeight:                0.15,
		MinNameSimilarity:           0.50,
		PhoneMatchIsDuplicate:       true,
	}
}

// configKey describes one updatable setting.
type configKey struct {
	name   string
	number func(c *Config) *float64
	flag   func(c *Config) *bool
}

var configKeys = []configKey{
	{name: "duplicateThreshold", number: func(c *Config) *float64 { return &c.DuplicateThreshold }},
	{name: "potentialDuplicateThreshold", number: func(c *Config) *float64 { return &c.PotentialDuplicateThreshold }},
	{name: "nameWeight", number: func(c *Config) *float64 { return &c.NameWeight }},
	{name: "phoneWeight", number: func(c *Config) *float64 { return &c.PhoneWeight }},
	{name: "addressWeight", number: func(c *Config) *float64 { return &c.AddressWeight }},
	{name: "domainWeight", number: func(c *Config) *float64 { return &c.DomainWeight }},
	{name: "minNameSimilarity", number: func(c *Config) *float64 { return &c.MinNameSimilarity }},
	{name: "phoneMatchIsDuplicate", flag: func(c *Config) *bool { return &c.PhoneMatchIsDuplicate }},
}

// snake_case spellings used by config files and the CLI.
var configKeyAliases = map[string]string{
	"duplicate_threshold":           "duplicateThreshold",
	"potential_duplicate_threshold": "potentialDuplicateThreshold",
	"name_weight":                   "nameWeight",
	"phone_weight":                  "phoneWeight",
	"address_weight":                "addressWeight",
	"domain_weight":                 "domainWeight",
	"min_name_similarity":           "minNameSimilarity",
	"phone_match_is_duplicate":      "phoneMatchIsDuplicate",
}

func lookupConfigKey(name string) (configKey, bool) {
	if alias, ok := configKeyAliases[name]; ok {
		name = alias
	}
	for _, k := range configKeys {
		if k.name == name {
			return k, true
		}
	}
	return configKey{}, false
}

// Validate checks that every weight and threshold lies in [0,1] and that
// DuplicateThreshold >= PotentialDuplicateThreshold.
func (c Config) Validate() error {
	for _, k := range configKeys {
		if k.number == nil {
			continue
		}
		v := *k.number(&c)
		if !inUnitRange(v) {
			return eris.Wrapf(ErrInvalidConfig, "%s must be between 0.0 and 1.0 (got %v)", k.name, v)
		}
	}
	if c.DuplicateThreshold < c.PotentialDuplicateThreshold {
		return eris.Wrapf(ErrInvalidConfig,
			"duplicateThreshold (%.2f) must be >= potentialDuplicateThreshold (%.2f)",
			c.DuplicateThreshold, c.PotentialDuplicateThreshold)
	}
	return nil
}

// ApplyUpdate returns a copy of c with the recognized entries of partial
// applied. Unknown keys, non-numeric or out-of-range values for numeric
// keys, and non-boolean values for the escalation flag are skipped and
// reported in ignored. If the result breaks the threshold ordering the
// update is rejected as a whole and c is returned unchanged.
func (c Config) ApplyUpdate(partial map[string]any) (Config, []string, error) {
	next := c
	var ignored []string

	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		k, ok := lookupConfigKey(name)
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		raw := partial[name]
		if k.flag != nil {
			b, ok := raw.(bool)
			if !ok {
				ignored = append(ignored, name)
				continue
			}
			*k.flag(&next) = b
			continue
		}
		v, ok := toFloat(raw)
		if !ok || !inUnitRange(v) {
			ignored = append(ignored, name)
			continue
		}
		*k.number(&next) = v
	}

	if err := next.Validate(); err != nil {
		return c, ignored, err
	}
	return next, ignored, nil
}

// String returns a compact representation for logs.
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Duplicate: %.2f, Potential: %.2f, Name: %.2f, Phone: %.2f, Address: %.2f, Domain: %.2f, MinName: %.2f, PhoneEscalation: %t}",
		c.DuplicateThreshold, c.PotentialDuplicateThreshold,
		c.NameWeight, c.PhoneWeight, c.AddressWeight, c.DomainWeight,
		c.MinNameSimilarity, c.PhoneMatchIsDuplicate,
	)
}

// LoadConfigFile reads an engine profile from a YAML file. Keys missing
// from the file keep their default values.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "dedupe: read config %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrapf(err, "dedupe: parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
