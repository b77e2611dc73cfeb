package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ruffel/sesh"
	"github.com/ruffel/sesh/fileutil"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultTimeout bounds dialing and the SSH handshake when WithTimeout is
// not given.
const DefaultTimeout = 10 * time.Second

var _ sesh.Transport = (*Transport)(nil)

// Transport implements sesh.Transport over the SSH protocol.
type Transport struct {
	timeout      time.Duration
	hostKeyCheck ssh.HostKeyCallback
	progress     fileutil.ProgressFunc
}

// Option configures a Transport.
type Option func(*Transport)

// WithTimeout bounds the TCP dial and each SSH handshake.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithHostKeyCallback layers an additional host key check (e.g. KnownHosts)
// under the fingerprint capture. The session's own fingerprint comparison
// still applies on top.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(t *Transport) {
		t.hostKeyCheck = cb
	}
}

// WithProgress calls fn with progress updates during file transfers.
func WithProgress(fn fileutil.ProgressFunc) Option {
	return func(t *Transport) {
		t.progress = fn
	}
}

// New creates an SSH transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		timeout: DefaultTimeout,
	}

	for _, o := range opts {
		o(t)
	}

	return t
}

// Dial opens a TCP connection to host:port. The SSH handshake itself is
// deferred to the first fingerprint or authentication call on the returned
// Conn, which is where the protocol requires it.
func (t *Transport) Dial(ctx context.Context, host string, port int) (sesh.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	d := net.Dialer{Timeout: t.timeout}

	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial tcp at %s: %w", addr, err)
	}

	return &Conn{
		addr:         addr,
		timeout:      t.timeout,
		hostKeyCheck: t.hostKeyCheck,
		progress:     t.progress,
		tcp:          nc,
	}, nil
}

// KnownHosts returns a host key callback that verifies host keys against
// strict entries in the user's ~/.ssh/known_hosts file.
func KnownHosts() (ssh.HostKeyCallback, error) {
	path := filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts")

	return knownhosts.New(path)
}
