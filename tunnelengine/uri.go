package tunnelengine

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

// Security, Transport are the recognized values for the "security" and
// "type" query keys in the tunnel URI grammar.
type Security string

const (
	SecurityNone    Security = "none"
	SecurityTLS     Security = "tls"
	SecurityReality Security = "reality"
)

type Transport string

const (
	TransportTCP  Transport = "tcp"
	TransportWS   Transport = "ws"
	TransportGRPC Transport = "grpc"
)

// URI is the parsed form of a tunnel connection string:
//
//	scheme://<uuid>@<host>:<port>?<kv-pairs>#<label>
type URI struct {
	Scheme      string
	Identity    uuid.UUID
	Host        string
	Port        int
	Security    Security
	SNI         string
	Fingerprint string
	Flow        string
	Transport   Transport
	Path        string
	ServiceName string
	Label       string
}

// canonicalUUID is the required grammar: 8-4-4-4-12 hex digits with hyphens,
// no braces, no urn: prefix, no hyphen-less form.
var canonicalUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ParseURI parses and validates a tunnel connection string. The identity
// field must match the canonical UUID grammar exactly; any other shape
// google/uuid might otherwise accept (braces, urn: prefix, no hyphens) is
// rejected as ConfigInvalid.
func ParseURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, ErrConfigInvalid.Wrap(err, "malformed URI")
	}
	if u.User == nil {
		return URI{}, ErrConfigInvalid.New("missing identity before @host")
	}

	identityRaw := u.User.Username()
	if !canonicalUUID.MatchString(identityRaw) {
		return URI{}, ErrConfigInvalid.New("identity is not a canonical UUID: " + identityRaw)
	}
	identity, err := uuid.Parse(identityRaw)
	if err != nil {
		return URI{}, ErrConfigInvalid.Wrap(err, "identity is not a canonical UUID: "+identityRaw)
	}

	host := u.Hostname()
	if host == "" {
		return URI{}, ErrConfigInvalid.New("missing host")
	}
	portStr := u.Port()
	if portStr == "" {
		return URI{}, ErrConfigInvalid.New("missing port")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return URI{}, ErrConfigInvalid.New("invalid port: " + portStr)
	}

	q := u.Query()
	out := URI{
		Scheme:      u.Scheme,
		Identity:    identity,
		Host:        host,
		Port:        port,
		Security:    Security(q.Get("security")),
		SNI:         q.Get("sni"),
		Fingerprint: q.Get("fp"),
		Flow:        q.Get("flow"),
		Transport:   Transport(q.Get("type")),
		Path:        q.Get("path"),
		ServiceName: q.Get("serviceName"),
		Label:       u.Fragment,
	}

	if out.Security == "" {
		out.Security = SecurityNone
	}
	switch out.Security {
	case SecurityNone, SecurityTLS, SecurityReality:
	default:
		return URI{}, ErrConfigInvalid.New("unrecognized security value: " + string(out.Security))
	}

	if out.Transport == "" {
		out.Transport = TransportTCP
	}
	switch out.Transport {
	case TransportTCP, TransportWS, TransportGRPC:
	default:
		return URI{}, ErrConfigInvalid.New("unrecognized transport type: " + string(out.Transport))
	}

	return out, nil
}
