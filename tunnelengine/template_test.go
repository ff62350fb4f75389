package tunnelengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildArgsSubstitutesConfigPlaceholder(t *testing.T) {
	require := require.New(t)
	args, err := buildArgs([]string{"run", "--config=${config}", "--quiet"}, "/tmp/zt1.cfg")
	require.NoError(err)
	require.Equal([]string{"run", "--config=/tmp/zt1.cfg", "--quiet"}, args)
}

func TestBuildArgsRejectsUnresolvedPlaceholder(t *testing.T) {
	require := require.New(t)
	_, err := buildArgs([]string{"--unknown=${bogus}"}, "/tmp/zt1.cfg")
	require.Error(err)
	require.True(ErrConfigInvalid.Is(err))
}
