package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("NATS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tarisa-core", cfg.App.Name)
	assert.Equal(t, 5*time.Minute, cfg.Escalation.SweepInterval())
	assert.Equal(t, 8, cfg.Escalation.Workers)
	assert.Equal(t, 10*time.Second, cfg.Escalation.IssueTimeout())
	assert.Equal(t, 2.0, cfg.Escalation.L3Multiplier)
	assert.Equal(t, 3.0, cfg.Escalation.L4Multiplier)
	assert.Equal(t, 100.0, cfg.Duplicate.RadiusMeters)
	assert.Equal(t, "tarisa:reference:snapshot", cfg.Reference.CacheKey)
	assert.Equal(t, "tarisa.events", cfg.NATS.SubjectPrefix)
	assert.True(t, cfg.Escalation.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ESCALATION_L3_MULTIPLIER", "1.5")
	t.Setenv("ESCALATION_L4_MULTIPLIER", "2.5")
	t.Setenv("DUPLICATE_RADIUS_METERS", "250")
	t.Setenv("ESCALATION_WORKERS", "not-a-number")
	t.Setenv("ESCALATION_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Escalation.L3Multiplier)
	assert.Equal(t, 2.5, cfg.Escalation.L4Multiplier)
	assert.Equal(t, 250.0, cfg.Duplicate.RadiusMeters)
	assert.Equal(t, 8, cfg.Escalation.Workers, "unparsable values fall back")
	assert.False(t, cfg.Escalation.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Escalation: EscalationConfig{
				SweepIntervalSeconds: 300, Workers: 8, IssueTimeoutSeconds: 10,
				L3Multiplier: 2, L4Multiplier: 3, UnassignedResolutionFactor: 2,
			},
			Duplicate: DuplicateConfig{RadiusMeters: 100},
			Reference: ReferenceConfig{RefreshIntervalSeconds: 600},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"zero interval":      func(c *Config) { c.Escalation.SweepIntervalSeconds = 0 },
		"no workers":         func(c *Config) { c.Escalation.Workers = 0 },
		"l3 not above one":   func(c *Config) { c.Escalation.L3Multiplier = 1 },
		"l4 below l3":        func(c *Config) { c.Escalation.L4Multiplier = 1.5 },
		"negative radius":    func(c *Config) { c.Duplicate.RadiusMeters = -1 },
		"zero refresh":       func(c *Config) { c.Reference.RefreshIntervalSeconds = 0 },
		"zero issue timeout": func(c *Config) { c.Escalation.IssueTimeoutSeconds = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")
	_, err := Load()
	assert.Error(t, err)
}
