package tunnelengine

import "encoding/json"

// clientConfig is the JSON configuration rendered for the tunnel binary:
// the allocated local port, the remote endpoint, credentials, transport,
// and TLS parameters.
type clientConfig struct {
	Log struct {
		Level string `json:"level"`
	} `json:"log"`
	Inbounds []inbound `json:"inbounds"`
	Outbounds []outbound `json:"outbounds"`
}

type inbound struct {
	Tag      string `json:"tag"`
	Protocol string `json:"protocol"`
	Listen   string `json:"listen"`
	Port     int    `json:"port"`
}

type outbound struct {
	Tag       string          `json:"tag"`
	Protocol  string          `json:"protocol"`
	Settings  outboundSetting `json:"settings"`
	StreamSettings streamSettings `json:"streamSettings"`
}

type outboundSetting struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	ID      string `json:"id"`
	Flow    string `json:"flow,omitempty"`
}

type streamSettings struct {
	Network  string       `json:"network"`
	Security string       `json:"security"`
	TLS      *tlsSettings `json:"tlsSettings,omitempty"`
	Path     string       `json:"path,omitempty"`
	ServiceName string    `json:"serviceName,omitempty"`
}

type tlsSettings struct {
	ServerName  string `json:"serverName,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// renderConfig marshals the tunnel client's JSON configuration for the given
// parsed URI and allocated local port.
func renderConfig(u URI, localPort int) ([]byte, error) {
	cfg := clientConfig{}
	cfg.Log.Level = "warning"

	cfg.Inbounds = []inbound{{
		Tag:      "socks-in",
		Protocol: "socks",
		Listen:   "127.0.0.1",
		Port:     localPort,
	}}

	stream := streamSettings{
		Network:     string(u.Transport),
		Security:    string(u.Security),
		Path:        u.Path,
		ServiceName: u.ServiceName,
	}
	if u.Security == SecurityTLS || u.Security == SecurityReality {
		stream.TLS = &tlsSettings{ServerName: u.SNI, Fingerprint: u.Fingerprint}
	}

	cfg.Outbounds = []outbound{{
		Tag:      "tunnel-out",
		Protocol: u.Scheme,
		Settings: outboundSetting{
			Address: u.Host,
			Port:    u.Port,
			ID:      u.Identity.String(),
			Flow:    u.Flow,
		},
		StreamSettings: stream,
	}}

	return json.MarshalIndent(cfg, "", "  ")
}
