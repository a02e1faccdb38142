package threshold

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyDefaults(t *testing.T) {
	th := Default()
	cases := []struct {
		power float64
		want  domain.Level
	}{
		{power: 1300, want: domain.LevelHigh},
		{power: 1200.0001, want: domain.LevelHigh},
		{power: 1200, want: domain.LevelNone},
		{power: 700, want: domain.LevelNone},
		{power: 250, want: domain.LevelNone},
		{power: 249.99, want: domain.LevelLow},
		{power: 0, want: domain.LevelLow},
		{power: -10, want: domain.LevelLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, th.Classify(tc.power), "power=%v", tc.power)
	}
}

func TestClassifyIsPure(t *testing.T) {
	th := Default()
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.LevelHigh, th.Classify(1500))
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.True(t, errors.Is(Thresholds{High: 100, Low: 100}.Validate(), domain.ErrInvalidThresholds))
	assert.Error(t, Thresholds{High: 100, Low: 200}.Validate())
	assert.Error(t, Thresholds{High: math.Inf(1), Low: 0}.Validate())
	assert.Error(t, Thresholds{High: math.NaN(), Low: 0}.Validate())
}

func TestHolderRejectsInvalidUpdate(t *testing.T) {
	h := NewStaticHolder(Default())
	require.Error(t, h.Update(Thresholds{High: 200, Low: 300}))
	assert.Equal(t, Default(), h.Snapshot())

	require.NoError(t, h.Update(Thresholds{High: 1000, Low: 100}))
	assert.Equal(t, domain.LevelHigh, h.Snapshot().Classify(1100))
}

func TestNewHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yml")
	require.NoError(t, os.WriteFile(path, []byte("high: 2000\nlow: 100\n"), 0o600))

	cfg := config.Config{Thresholds: config.ThresholdConfig{High: 1200, Low: 250, ConfigPath: path}}
	h, err := NewHolder(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Thresholds{High: 2000, Low: 100}, h.Snapshot())
}

func TestNewHolderIgnoresInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yml")
	require.NoError(t, os.WriteFile(path, []byte("high: 100\nlow: 500\n"), 0o600))

	cfg := config.Config{Thresholds: config.ThresholdConfig{High: 1200, Low: 250, ConfigPath: path}}
	h, err := NewHolder(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Default(), h.Snapshot())
}

func TestNewHolderRejectsInvalidEnvironment(t *testing.T) {
	_, err := NewHolder(config.Config{Thresholds: config.ThresholdConfig{High: 10, Low: 20}}, zap.NewNop())
	assert.Error(t, err)
}
