package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATASET_SOURCE", "/data/communes.geojson")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "/data/communes.geojson", cfg.DatasetSource)
	assert.Equal(t, 30*time.Second, cfg.DatasetTimeout)
	assert.True(t, cfg.DatasetDropIncomplete)

	assert.Equal(t, domain.StdDevPopulation, cfg.StdDevMode)
	assert.Equal(t, domain.DegenerateFail, cfg.DegeneratePolicy)
	assert.Equal(t, domain.MissingFail, cfg.MissingValuePolicy)
	assert.Equal(t, domain.ContributionAbsoluteShare, cfg.ContributionPolicy)
	assert.Equal(t, 128, cfg.CacheSize)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "commune-vi-snapshots", cfg.KafkaSinkTopic)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DATASET_DROP_INCOMPLETE", "false")
	t.Setenv("STDDEV_MODE", "sample")
	t.Setenv("DEGENERATE_POLICY", "skip")
	t.Setenv("MISSING_VALUE_POLICY", "mean_fill")
	t.Setenv("CONTRIBUTION_POLICY", "signed_sum")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.False(t, cfg.DatasetDropIncomplete)
	assert.Equal(t, domain.StdDevSample, cfg.StdDevMode)
	assert.Equal(t, domain.DegenerateSkip, cfg.DegeneratePolicy)
	assert.Equal(t, domain.MissingMeanFill, cfg.MissingValuePolicy)
	assert.Equal(t, domain.ContributionSignedSum, cfg.ContributionPolicy)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_RequiresDatasetSource(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATASET_SOURCE")
}

func TestLoad_RejectsInvalidPolicies(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"stddev mode", "STDDEV_MODE", "bogus"},
		{"degenerate policy", "DEGENERATE_POLICY", "ignore"},
		{"missing value policy", "MISSING_VALUE_POLICY", "interpolate"},
		{"contribution policy", "CONTRIBUTION_POLICY", "pie"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestLoad_RejectsInvalidDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("DATASET_TIMEOUT", "-1s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATASET_TIMEOUT")
}

func TestLoad_KafkaEnabledRequiresTopic(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_SINK_TOPIC", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_SINK_TOPIC")
}

func TestLoad_RejectsNonPositiveCacheSize(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_SIZE")
}
