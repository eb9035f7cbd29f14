package oglog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("configures the process-wide logger", func(t *testing.T) {
		cfg := fileOnlyConfig(t)
		svc, err := Setup(cfg)
		require.NoError(t, err)
		defer svc.Close()

		assert.Same(t, svc, L())

		svc.InfoWith().Msg("via global")
		require.NoError(t, svc.Close())
		assert.Len(t, readRecords(t, cfg), 1)
	})

	t.Run("reconfiguration flushes the previous sink", func(t *testing.T) {
		first, err := Setup(fileOnlyConfig(t))
		require.NoError(t, err)

		first.InfoWith().Msg("before reconfigure")

		secondCfg := fileOnlyConfig(t)
		second, err := Setup(secondCfg)
		require.NoError(t, err)
		defer second.Close()

		assert.Same(t, second, L())
		// The first instance was closed: its tail reached disk and its
		// emission is now a no-op.
		assert.FileExists(t, filepath.Join(first.Config.LogDir, "test-api.log"))
		assert.False(t, first.isInitialized.Load())
	})

	t.Run("invalid config leaves the previous logger in place", func(t *testing.T) {
		good, err := Setup(fileOnlyConfig(t))
		require.NoError(t, err)
		defer good.Close()

		bad := fileOnlyConfig(t)
		bad.RetentionType = "eons"
		_, err = Setup(bad)
		require.Error(t, err)
		assert.Same(t, good, L())
	})
}
