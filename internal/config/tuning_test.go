package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gait.report/internal/gait"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("partial config merges over defaults", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{
			"refractory_period_s": 0.4,
			"stride_history_cap": 10
		}`)

		tuning, err := Load(path)
		require.NoError(t, err)

		cfg := tuning.GaitConfig()
		def := gait.DefaultConfig()
		assert.Equal(t, 0.4, cfg.RefractoryPeriod)
		assert.Equal(t, 10, cfg.StrideHistoryCap)
		// Untouched fields keep their defaults.
		assert.Equal(t, def.WindowDuration, cfg.WindowDuration)
		assert.Equal(t, def.MinDownwardVelocity, cfg.MinDownwardVelocity)
		assert.Equal(t, def.CadenceWindow, cfg.CadenceWindow)
	})

	t.Run("empty object keeps every default", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{}`)
		tuning, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, gait.DefaultConfig(), tuning.GaitConfig())
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		path := writeConfig(t, "tuning.yaml", `{}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		path := writeConfig(t, "tuning.json", `{"window_duration_s": `)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}

func TestGaitConfigNilReceiver(t *testing.T) {
	var tuning *Tuning
	assert.Equal(t, gait.DefaultConfig(), tuning.GaitConfig())
}

func TestSessionWeights(t *testing.T) {
	var nilTuning *Tuning
	trunk, lateral := nilTuning.SessionWeights()
	assert.Equal(t, 0.6, trunk)
	assert.Equal(t, 0.4, lateral)

	tw, lw := 0.7, 0.3
	tuning := &Tuning{SessionTrunkWeight: &tw, SessionLateralWeight: &lw}
	trunk, lateral = tuning.SessionWeights()
	assert.Equal(t, 0.7, trunk)
	assert.Equal(t, 0.3, lateral)
}
