// Package ssh provides an implementation of the sesh.Transport interface
// for remote hosts via the SSH protocol.
//
// It utilizes "golang.org/x/crypto/ssh" to manage connections, providing:
//   - Host key fingerprinting before any credentials are presented
//   - Password and public-key authentication, one method per attempt
//   - File transfers (Send/Receive) via SFTP
//   - Remote command execution with context-driven cancellation
//
// A fingerprint is reported in the canonical sesh form (uppercase legacy MD5
// hex, no separators) so the session can compare it byte-for-byte against a
// pinned value. An optional host key callback (e.g. KnownHosts) can be
// layered on top of fingerprint pinning.
//
// Usage:
//
//	transport := ssh.New(ssh.WithTimeout(5 * time.Second))
//	s, err := sesh.New(ctx, cfg, transport)
package ssh
