// Package sesh manages the lifecycle of a single remote-access session.
//
// # Lifecycle
//
// A Session walks a strict sequence: dial the transport, optionally verify
// the host's identity against a pinned fingerprint, authenticate with exactly
// one of two methods (password or public key), and only then allow remote
// operations. Any failure along the way leaves the session disconnected with
// no live connection handle.
//
// # Transports
//
// The wire protocol is a collaborator, not part of this package: everything
// network-facing sits behind the Transport and Conn interfaces. The
// providers/ssh package implements them over golang.org/x/crypto/ssh with
// SFTP file transfer; providers/mock and seshtest provide test doubles.
//
// # Errors
//
// Every failure surfaces immediately as a distinct typed error (see
// ConnectionError, HostKeyMismatchError, AuthenticationError and friends).
// Nothing is retried or swallowed internally, and no operation has a
// partial-success state.
//
// Usage:
//
//	cfg := sesh.Config{
//	    Host:            "example.com",
//	    User:            "deploy",
//	    HostFingerprint: "aa:bb:cc:dd:ee:ff:00:11:22:33:44:55:66:77:88:99",
//	    Auth:            sesh.AuthPassword,
//	    Password:        "secret",
//	}
//
//	s, err := sesh.New(ctx, cfg, ssh.New())
//	if err != nil {
//	    return err
//	}
//
//	defer func() { _ = s.Close() }()
//
//	err = s.SendFile(ctx, "./app.tar.gz", "/srv/app.tar.gz")
package sesh

import (
	"context"
	"io"
	"os"
)

// Transport abstracts the protocol layer that carries a session (e.g. SSH).
type Transport interface {
	// Dial opens a transport-level connection to host:port.
	//
	// The returned Conn is unauthenticated; the caller drives identity
	// verification and authentication through it.
	Dial(ctx context.Context, host string, port int) (Conn, error)
}

// Conn is one transport-level connection to a remote host. A Session owns at
// most one Conn at a time and is the only caller; implementations are not
// required to be safe for concurrent use.
type Conn interface {
	io.Closer

	// Fingerprint returns the canonical fingerprint of the host's identity
	// key: uppercase hex with separators stripped. It is available before
	// authentication so callers can reject an impersonated host without
	// ever presenting credentials.
	Fingerprint(ctx context.Context) (string, error)

	// AuthPassword presents user/password credentials and reports whether
	// the host accepted them. A false result with a nil error means the
	// credentials were rejected; an error means the attempt itself failed.
	AuthPassword(ctx context.Context, user, password string) (bool, error)

	// AuthPublicKey presents a key pair and reports whether the host
	// accepted it. publicKeyPath may be empty; when set, implementations
	// should cross-check it against the private key.
	AuthPublicKey(ctx context.Context, user, publicKeyPath, privateKeyPath, passphrase string) (bool, error)

	// Send copies the local file at localPath to remotePath on the host,
	// creating the remote file with the given mode.
	Send(ctx context.Context, localPath, remotePath string, mode os.FileMode) error

	// Receive copies the remote file at remotePath into the local
	// filesystem at localPath.
	Receive(ctx context.Context, remotePath, localPath string) error

	// Exec runs a command line on the remote host and returns its combined
	// output. The command string must already be shell-quoted; use
	// Command.String for anything built from user input.
	Exec(ctx context.Context, command string) ([]byte, error)
}
