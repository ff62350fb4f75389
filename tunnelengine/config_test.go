package tunnelengine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderConfigEmbedsAllocatedPortAndRemote(t *testing.T) {
	require := require.New(t)
	u, err := ParseURI(validURI)
	require.NoError(err)

	raw, err := renderConfig(u, 19900)
	require.NoError(err)

	var cfg clientConfig
	require.NoError(json.Unmarshal(raw, &cfg))

	require.Len(cfg.Inbounds, 1)
	require.Equal(19900, cfg.Inbounds[0].Port)

	require.Len(cfg.Outbounds, 1)
	out := cfg.Outbounds[0]
	require.Equal("example.com", out.Settings.Address)
	require.Equal(443, out.Settings.Port)
	require.Equal(u.Identity.String(), out.Settings.ID)
	require.Equal("tls", out.StreamSettings.Security)
	require.NotNil(out.StreamSettings.TLS)
	require.Equal("example.com", out.StreamSettings.TLS.ServerName)
}

func TestRenderConfigOmitsTLSBlockWhenSecurityNone(t *testing.T) {
	require := require.New(t)
	u, err := ParseURI("vless://550e8400-e29b-41d4-a716-446655440000@example.com:443")
	require.NoError(err)

	raw, err := renderConfig(u, 19901)
	require.NoError(err)

	var cfg clientConfig
	require.NoError(json.Unmarshal(raw, &cfg))
	require.Nil(cfg.Outbounds[0].StreamSettings.TLS)
}
