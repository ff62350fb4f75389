package engine

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvOverridesDefaults(t *testing.T) {
	require := require.New(t)
	t.Setenv("STRATEGYD_PORT_BASE", "20000")
	t.Setenv("STRATEGYD_PORT_COUNT", "50")
	t.Setenv("STRATEGYD_CRASH_WINDOW", "500ms")

	cfg := ConfigFromEnv()
	require.Equal(20000, cfg.PortBase)
	require.Equal(50, cfg.PortCount)
	require.Equal(500*time.Millisecond, cfg.CrashWindow)
	require.Equal(NewConfig().ProbeTimeout, cfg.ProbeTimeout)
}

func TestConfigFromEnvFallsBackOnUnparsable(t *testing.T) {
	require := require.New(t)
	t.Setenv("STRATEGYD_PORT_BASE", "not-a-number")
	require.Equal(NewConfig().PortBase, ConfigFromEnv().PortBase)
	_ = os.Unsetenv("STRATEGYD_PORT_BASE")
}
