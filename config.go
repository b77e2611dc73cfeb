package sesh

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by Config.Resolve.
const (
	DefaultPort    = 22
	DefaultTimeout = 10 * time.Second
)

// AuthMethod selects how a session authenticates. It is a closed enum with
// exactly two cases; the zero value is AuthPassword.
type AuthMethod int

const (
	// AuthPassword authenticates with the Config.Password credential.
	AuthPassword AuthMethod = iota
	// AuthPublicKey authenticates with the Config key pair.
	AuthPublicKey
)

func (m AuthMethod) String() string {
	switch m {
	case AuthPassword:
		return "password"
	case AuthPublicKey:
		return "publickey"
	default:
		return "unknown"
	}
}

// ParseAuthMethod converts a method tag (e.g. "pass", "password", "key",
// "publickey") to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "password":
		return AuthPassword, nil
	case "key", "pubkey", "publickey", "public-key":
		return AuthPublicKey, nil
	default:
		return AuthPassword, fmt.Errorf("unknown authentication method %q", s)
	}
}

// Config holds all parameters for one session. It is treated as immutable
// once resolved; a Session keeps its own resolved copy.
type Config struct {
	// Connection details
	Host string // Hostname or IP address
	Port int    // Port number (default 22)
	User string // Username to authenticate as

	// HostFingerprint pins the expected fingerprint of the host's identity
	// key. Empty disables verification. Any mix of case and ':' separators
	// is accepted; Resolve rewrites it to the canonical comparison form.
	HostFingerprint string

	// Authentication. Exactly one method applies, selected by Auth; the
	// fields of the other method are ignored. Presence of the selected
	// method's fields is checked at authentication time, not here.
	Auth           AuthMethod
	Password       string // Password for AuthPassword
	PublicKeyPath  string // Optional public key path for AuthPublicKey
	PrivateKeyPath string // Private key path for AuthPublicKey
	Passphrase     string // Passphrase for an encrypted private key

	// Timeout bounds the connection attempt, dial through host identity
	// verification (default 10s).
	Timeout time.Duration
}

// DefaultConfig returns the built-in default configuration that caller
// overrides are resolved against.
func DefaultConfig() Config {
	return Config{
		Port:    DefaultPort,
		Timeout: DefaultTimeout,
	}
}

// Resolve merges c over the built-in defaults: zero-valued fields are filled
// in and the pinned fingerprint is rewritten to canonical form. Resolution
// never fails; downstream operations validate usability.
func (c Config) Resolve() Config {
	def := DefaultConfig()

	if c.Port == 0 {
		c.Port = def.Port
	}

	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}

	c.HostFingerprint = NormalizeFingerprint(c.HostFingerprint)

	return c
}

// Addr returns the dial address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NormalizeFingerprint rewrites a fingerprint to the canonical comparison
// form used throughout this package: ':' separators stripped, hex
// upper-cased. For example "de:ad:be:ef" becomes "DEADBEEF". This matches
// the format Conn.Fingerprint implementations must emit, so verification is
// a byte-for-byte comparison.
func NormalizeFingerprint(fp string) string {
	return strings.ToUpper(strings.ReplaceAll(fp, ":", ""))
}
