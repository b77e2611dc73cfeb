package sesh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// DefaultFileMode is the create mode applied to sent files when no WithMode
// option is given.
const DefaultFileMode os.FileMode = 0o644

// disconnectCommand is sent best-effort to request graceful termination
// before the connection handle is torn down.
const disconnectCommand = "exit"

// Session is one managed remote-access session. It owns at most one
// transport connection at a time, created by Connect and released by
// Disconnect (or Close). After a disconnect the same Session can connect
// again with its original configuration.
//
// A Session serializes access to its connection state internally, but the
// remote operations themselves are synchronous one-at-a-time calls; it is
// not designed for concurrent operation by multiple callers.
//
// There is no liveness probe: the transport layer offers no reliable
// keepalive primitive, so a connection is presumed live until an operation
// fails.
type Session struct {
	cfg       Config
	transport Transport

	autoConnect bool

	mu        sync.Mutex
	conn      Conn
	connected bool
}

// New creates a Session from cfg resolved over the built-in defaults and,
// unless WithManualConnect is given, runs the full connect sequence before
// returning. A connect failure during New surfaces as-is and no Session is
// returned.
func New(ctx context.Context, cfg Config, transport Transport, opts ...Option) (*Session, error) {
	if transport == nil {
		return nil, errors.New("sesh: transport cannot be nil")
	}

	s := &Session{
		cfg:         cfg.Resolve(),
		transport:   transport,
		autoConnect: true,
	}

	for _, o := range opts {
		o(s)
	}

	if s.autoConnect {
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Config returns the resolved configuration the session was built from.
func (s *Session) Config() Config {
	return s.cfg
}

// Connected reports whether the session holds an authenticated connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

// Connect runs the full connect sequence: open a transport connection,
// verify the host identity when a fingerprint is pinned, then authenticate
// with the configured method. The steps run in that order and the sequence
// stops at the first failure, releasing any connection opened along the way;
// only a fully authenticated session is marked connected.
//
// Connecting an already connected session is a no-op. After a failure the
// caller may simply call Connect again to retry.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()

		return nil
	}

	s.mu.Unlock()

	if err := s.Open(ctx); err != nil {
		return err
	}

	var (
		ok  bool
		err error
	)

	switch s.cfg.Auth {
	case AuthPublicKey:
		ok, err = s.LoginKey(ctx)
	case AuthPassword:
		ok, err = s.LoginPassword(ctx)
	default:
		err = fmt.Errorf("unknown authentication method %d", int(s.cfg.Auth))
	}

	// Rejected credentials fail the sequence outright; a half-connected
	// session must not look usable.
	if err != nil || !ok {
		s.teardown(ctx, false)

		return &AuthenticationError{Method: s.cfg.Auth, User: s.cfg.User, Cause: err}
	}

	return nil
}

// Open establishes the transport connection and verifies the host identity,
// without authenticating. The resolved Timeout bounds the attempt. Most
// callers want Connect; Open exists for callers that drive LoginPassword or
// LoginKey explicitly.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()

		return nil
	}

	s.mu.Unlock()

	// The configured timeout bounds the whole open sequence, dial through
	// host identity verification.
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	conn, err := s.transport.Dial(ctx, s.cfg.Host, s.cfg.Port)
	if err != nil {
		return &ConnectionError{Addr: s.cfg.Addr(), Err: err}
	}

	if s.cfg.HostFingerprint != "" {
		actual, err := conn.Fingerprint(ctx)
		if err != nil {
			_ = conn.Close()

			return &ConnectionError{Addr: s.cfg.Addr(), Err: err}
		}

		if actual != s.cfg.HostFingerprint {
			// The rejected connection is torn down, not abandoned: an
			// unverified host must not be left holding a live handle.
			_ = conn.Close()

			return &HostKeyMismatchError{
				Addr:     s.cfg.Addr(),
				Expected: s.cfg.HostFingerprint,
				Actual:   actual,
			}
		}
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	return nil
}

// LoginPassword presents the configured user/password pair and reports
// whether the host accepted it. It is a single pass-through attempt: no
// retries and no fallback to the other method. The session must be open.
//
// The password's presence is validated here, not at construction.
func (s *Session) LoginPassword(ctx context.Context) (bool, error) {
	conn, err := s.open()
	if err != nil {
		return false, err
	}

	if s.cfg.Password == "" {
		return false, errors.New("password not set")
	}

	ok, err := conn.AuthPassword(ctx, s.cfg.User, s.cfg.Password)
	if err != nil {
		return false, err
	}

	if ok {
		s.markConnected()
	}

	return ok, nil
}

// LoginKey presents the configured key pair and reports whether the host
// accepted it. It is a single pass-through attempt: no retries and no
// fallback to the other method. The session must be open.
//
// The private key path's presence is validated here, not at construction.
func (s *Session) LoginKey(ctx context.Context) (bool, error) {
	conn, err := s.open()
	if err != nil {
		return false, err
	}

	if s.cfg.PrivateKeyPath == "" {
		return false, errors.New("private key path not set")
	}

	ok, err := conn.AuthPublicKey(ctx, s.cfg.User, s.cfg.PublicKeyPath, s.cfg.PrivateKeyPath, s.cfg.Passphrase)
	if err != nil {
		return false, err
	}

	if ok {
		s.markConnected()
	}

	return ok, nil
}

// SendFile transfers the local file at localPath to remotePath on the remote
// host. The local file must exist before the transport is invoked. The
// remote file is created with DefaultFileMode unless WithMode overrides it.
func (s *Session) SendFile(ctx context.Context, localPath, remotePath string, opts ...FileOption) error {
	conn, err := s.handle()
	if err != nil {
		return err
	}

	if _, err := os.Stat(localPath); err != nil {
		return &LocalFileNotFoundError{Path: localPath, Err: err}
	}

	cfg := DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if err := conn.Send(ctx, localPath, remotePath, cfg.Mode); err != nil {
		return &RemoteWriteError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}

	return nil
}

// RequestFile transfers the remote file at remotePath into the local
// filesystem at localPath.
func (s *Session) RequestFile(ctx context.Context, localPath, remotePath string) error {
	conn, err := s.handle()
	if err != nil {
		return err
	}

	if err := conn.Receive(ctx, remotePath, localPath); err != nil {
		return &RemoteReadError{RemotePath: remotePath, LocalPath: localPath, Err: err}
	}

	return nil
}

// MoveRemoteFile renames oldPath to newPath on the remote host. Both paths
// are shell-quoted before dispatch.
func (s *Session) MoveRemoteFile(ctx context.Context, oldPath, newPath string) error {
	return s.remoteCommand(ctx, NewCommand("mv", "--", oldPath, newPath))
}

// CopyRemoteFile duplicates the remote file at path to copyTo on the remote
// host. Both paths are shell-quoted before dispatch.
func (s *Session) CopyRemoteFile(ctx context.Context, path, copyTo string) error {
	return s.remoteCommand(ctx, NewCommand("cp", "--", path, copyTo))
}

// Exec runs an arbitrary command on the remote host and returns its combined
// output. The command's arguments are shell-quoted before dispatch.
func (s *Session) Exec(ctx context.Context, cmd *Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	conn, err := s.handle()
	if err != nil {
		return nil, err
	}

	line := cmd.String()

	out, err := conn.Exec(ctx, line)
	if err != nil {
		return out, &RemoteCommandError{Command: line, Output: out, Err: err}
	}

	return out, nil
}

// Disconnect requests graceful termination from the remote side, then
// unconditionally clears the connection handle. It is idempotent: calling it
// on an already disconnected session is a no-op.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.teardown(ctx, true)
}

// Close releases the session's connection if one is held. It is the scoped
// teardown counterpart to Disconnect, meant for defer, and shares its
// idempotency: the handle is released exactly once no matter how many exit
// paths run through here.
func (s *Session) Close() error {
	return s.teardown(context.Background(), true)
}

// teardown clears the connection state and closes the handle. graceful
// additionally asks the remote side to terminate first; the handle is
// cleared regardless of that command's outcome.
func (s *Session) teardown(ctx context.Context, graceful bool) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.connected
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	if graceful && connected {
		_, _ = conn.Exec(ctx, disconnectCommand)
	}

	return conn.Close()
}

func (s *Session) markConnected() {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
}

// open returns the current connection handle, authenticated or not.
func (s *Session) open() (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, ErrNotOpen
	}

	return s.conn, nil
}

// handle returns the authenticated connection handle.
func (s *Session) handle() (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.conn == nil {
		return nil, ErrNotConnected
	}

	return s.conn, nil
}

func (s *Session) remoteCommand(ctx context.Context, cmd *Command) error {
	conn, err := s.handle()
	if err != nil {
		return err
	}

	line := cmd.String()

	out, err := conn.Exec(ctx, line)
	if err != nil {
		return &RemoteCommandError{Command: line, Output: out, Err: err}
	}

	return nil
}
