package dedupe

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.75, cfg.DuplicateThreshold, 0.001)
	assert.InDelta(t, 0.60, cfg.PotentialDuplicateThreshold, 0.001)
	assert.InDelta(t, 1.0, cfg.NameWeight+cfg.PhoneWeight+cfg.AddressWeight+cfg.DomainWeight, 0.001)
	assert.True(t, cfg.PhoneMatchIsDuplicate)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"equal thresholds", func(c *Config) { c.PotentialDuplicateThreshold = c.DuplicateThreshold }, ""},
		{"threshold order", func(c *Config) { c.DuplicateThreshold = 0.5; c.PotentialDuplicateThreshold = 0.9 }, "must be >= potentialDuplicateThreshold"},
		{"weight above 1", func(c *Config) { c.NameWeight = 1.5 }, "nameWeight must be between 0.0 and 1.0"},
		{"negative weight", func(c *Config) { c.DomainWeight = -0.1 }, "domainWeight must be between 0.0 and 1.0"},
		{"nan", func(c *Config) { c.MinNameSimilarity = math.NaN() }, "minNameSimilarity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyUpdate_RecognizedKeys(t *testing.T) {
	next, ignored, err := DefaultConfig().ApplyUpdate(map[string]any{
		"duplicateThreshold":    0.8,
		"nameWeight":            json.Number("0.5"),
		"phone_weight":          float32(0.25),
		"addressWeight":         0,
		"phoneMatchIsDuplicate": false,
	})
	require.NoError(t, err)
	assert.Empty(t, ignored)
	assert.InDelta(t, 0.8, next.DuplicateThreshold, 0.0001)
	assert.InDelta(t, 0.5, next.NameWeight, 0.0001)
	assert.InDelta(t, 0.25, next.PhoneWeight, 0.0001)
	assert.InDelta(t, 0, next.AddressWeight, 0.0001)
	assert.False(t, next.PhoneMatchIsDuplicate)
	assert.InDelta(t, 0.15, next.DomainWeight, 0.0001)
}

func TestApplyUpdate_IgnoresInvalidEntries(t *testing.T) {
	base := DefaultConfig()
	next, ignored, err := base.ApplyUpdate(map[string]any{
		"bogus":                 1,
		"nameWeight":            "0.9",
		"phoneWeight":           1.5,
		"domainWeight":          -0.2,
		"phoneMatchIsDuplicate": "yes",
		"minNameSimilarity":     0.4,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bogus", "domainWeight", "nameWeight", "phoneMatchIsDuplicate", "phoneWeight"}, ignored)
	assert.InDelta(t, 0.4, next.MinNameSimilarity, 0.0001)
	assert.Equal(t, base.NameWeight, next.NameWeight)
	assert.Equal(t, base.PhoneWeight, next.PhoneWeight)
	assert.Equal(t, base.DomainWeight, next.DomainWeight)
	assert.True(t, next.PhoneMatchIsDuplicate)
}

func TestApplyUpdate_RejectsThresholdInversion(t *testing.T) {
	base := DefaultConfig()
	next, _, err := base.ApplyUpdate(map[string]any{
		"duplicateThreshold":          0.5,
		"potentialDuplicateThreshold": 0.9,
		"nameWeight":                  0.9,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, base, next)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
duplicate_threshold: 0.85
name_weight: 0.5
phone_match_is_duplicate: false
`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, cfg.DuplicateThreshold, 0.0001)
	assert.InDelta(t, 0.5, cfg.NameWeight, 0.0001)
	assert.False(t, cfg.PhoneMatchIsDuplicate)
	// Unset keys keep defaults.
	assert.InDelta(t, 0.60, cfg.PotentialDuplicateThreshold, 0.0001)
	assert.InDelta(t, 0.30, cfg.PhoneWeight, 0.0001)
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedupe: read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("duplicate_threshold: 0.2\n"), 0o644))
	_, err = LoadConfigFile(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("name_weight: [oops"), 0o644))
	_, err = LoadConfigFile(garbled)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedupe: parse config")
}

func TestConfig_String(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, "Duplicate: 0.75")
	assert.Contains(t, s, "PhoneEscalation: true")
}
