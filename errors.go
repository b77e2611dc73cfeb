package sesh

import (
	"errors"
	"fmt"
)

// ErrNotConnected indicates that a remote operation was attempted on a
// session that has no authenticated connection.
var ErrNotConnected = errors.New("session is not connected")

// ErrNotOpen indicates that an authentication attempt was made before a
// transport connection was opened.
var ErrNotOpen = errors.New("session has no open connection")

// ConnectionError represents a transport-level connection failure: the host
// was unreachable, refused the connection, or protocol negotiation failed.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// HostKeyMismatchError represents a failed host identity verification: the
// live fingerprint presented by the remote host does not equal the pinned
// one. The session never authenticates against such a host.
type HostKeyMismatchError struct {
	Addr     string
	Expected string // Pinned fingerprint, canonical form
	Actual   string // Fingerprint presented by the host
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key verification failed for %s: fingerprint %s does not match pinned %s",
		e.Addr, e.Actual, e.Expected)
}

// AuthenticationError represents rejected credentials or a failed
// authentication attempt. A plain rejection carries a nil Cause.
type AuthenticationError struct {
	Method AuthMethod
	User   string
	Cause  error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s authentication for user %q failed: %v", e.Method, e.User, e.Cause)
	}

	return fmt.Sprintf("%s authentication rejected for user %q", e.Method, e.User)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// LocalFileNotFoundError represents a failed pre-flight check: the local
// source of a file transfer does not exist. The transport is never invoked.
type LocalFileNotFoundError struct {
	Path string
	Err  error
}

func (e *LocalFileNotFoundError) Error() string {
	return fmt.Sprintf("local file %q not found", e.Path)
}

func (e *LocalFileNotFoundError) Unwrap() error {
	return e.Err
}

// RemoteWriteError represents a failed transfer towards the remote host.
type RemoteWriteError struct {
	LocalPath  string
	RemotePath string
	Err        error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("failed to write %q to remote %q: %v", e.LocalPath, e.RemotePath, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// RemoteReadError represents a failed transfer from the remote host.
type RemoteReadError struct {
	RemotePath string
	LocalPath  string
	Err        error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("failed to read remote %q into %q: %v", e.RemotePath, e.LocalPath, e.Err)
}

func (e *RemoteReadError) Unwrap() error {
	return e.Err
}

// RemoteCommandError represents a remote command that could not be
// dispatched or exited unsuccessfully. Output holds whatever combined output
// the command produced before failing.
type RemoteCommandError struct {
	Command string
	Output  []byte
	Err     error
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("remote command %q failed: %v", e.Command, e.Err)
}

func (e *RemoteCommandError) Unwrap() error {
	return e.Err
}
