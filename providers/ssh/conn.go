package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ruffel/sesh"
	"github.com/ruffel/sesh/fileutil"
	"golang.org/x/crypto/ssh"
)

var _ sesh.Conn = (*Conn)(nil)

// Conn is one SSH connection to a remote host. The raw TCP connection
// produced by Dial is consumed by the first handshake (fingerprint probe or
// authentication); later handshakes redial transparently.
type Conn struct {
	addr         string
	timeout      time.Duration
	hostKeyCheck ssh.HostKeyCallback
	progress     fileutil.ProgressFunc

	mu          sync.Mutex
	tcp         net.Conn
	client      *ssh.Client
	fingerprint string
	closed      bool
}

// Fingerprint returns the canonical fingerprint of the host's identity key
// (uppercase legacy MD5 hex, no separators).
//
// When no authenticated client exists yet, the key is fetched with a probe
// handshake carrying no credentials: the SSH protocol presents the host key
// during key exchange, before user authentication runs, so the probe
// captures it and the expected authentication failure is discarded.
func (c *Conn) Fingerprint(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fingerprint != "" {
		return c.fingerprint, nil
	}

	if c.closed {
		return "", errors.New("connection closed")
	}

	nc, err := c.takeConn(ctx)
	if err != nil {
		return "", err
	}

	cfg := &ssh.ClientConfig{
		User:            "fingerprint-probe",
		HostKeyCallback: c.recordKey(),
		Timeout:         c.timeout,
	}

	c.applyDeadline(ctx, nc)

	conn, chans, reqs, err := ssh.NewClientConn(nc, c.addr, cfg)
	if err == nil {
		// The server accepted the "none" method. We only wanted the key.
		_ = ssh.NewClient(conn, chans, reqs).Close()
	} else {
		_ = nc.Close()
	}

	if c.fingerprint == "" {
		return "", fmt.Errorf("failed to fetch host key from %s: %w", c.addr, err)
	}

	return c.fingerprint, nil
}

// AuthPassword performs the SSH handshake with password authentication.
func (c *Conn) AuthPassword(ctx context.Context, user, password string) (bool, error) {
	return c.handshake(ctx, user, []ssh.AuthMethod{ssh.Password(password)})
}

// AuthPublicKey performs the SSH handshake with public-key authentication.
// The private key is loaded from privateKeyPath (decrypted with passphrase
// when one is given); a non-empty publicKeyPath is cross-checked against it
// so a mismatched pair fails before the host is contacted.
func (c *Conn) AuthPublicKey(ctx context.Context, user, publicKeyPath, privateKeyPath, passphrase string) (bool, error) {
	signer, err := loadSigner(privateKeyPath, passphrase)
	if err != nil {
		return false, err
	}

	if publicKeyPath != "" {
		if err := checkKeyPair(publicKeyPath, signer); err != nil {
			return false, err
		}
	}

	return c.handshake(ctx, user, []ssh.AuthMethod{ssh.PublicKeys(signer)})
}

// Send copies the local file to remotePath using SFTP.
func (c *Conn) Send(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	return c.upload(ctx, localPath, remotePath, mode)
}

// Receive copies the remote file at remotePath to localPath using SFTP.
func (c *Conn) Receive(ctx context.Context, remotePath, localPath string) error {
	return c.download(ctx, remotePath, localPath)
}

// Close tears down the SSH client and any unconsumed TCP connection.
// It is idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	var errs []error

	if c.client != nil {
		errs = append(errs, c.client.Close())
		c.client = nil
	}

	if c.tcp != nil {
		errs = append(errs, c.tcp.Close())
		c.tcp = nil
	}

	return errors.Join(errs...)
}

// handshake runs the SSH client handshake with the given auth methods and
// promotes the connection to an authenticated client on success. Rejected
// credentials report (false, nil); transport failures pass through.
func (c *Conn) handshake(ctx context.Context, user string, auth []ssh.AuthMethod) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, errors.New("connection closed")
	}

	if c.client != nil {
		return true, nil // already authenticated
	}

	nc, err := c.takeConn(ctx)
	if err != nil {
		return false, err
	}

	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: c.recordKey(),
		Timeout:         c.timeout,
	}

	c.applyDeadline(ctx, nc)

	conn, chans, reqs, err := ssh.NewClientConn(nc, c.addr, cfg)
	if err != nil {
		_ = nc.Close()

		if isAuthFailure(err) {
			return false, nil
		}

		return false, err
	}

	_ = nc.SetDeadline(time.Time{})

	c.client = ssh.NewClient(conn, chans, reqs)

	return true, nil
}

// takeConn hands out the pristine TCP connection from Dial, or redials when
// it has already been consumed by an earlier handshake.
func (c *Conn) takeConn(ctx context.Context) (net.Conn, error) {
	if c.tcp != nil {
		nc := c.tcp
		c.tcp = nil

		return nc, nil
	}

	d := net.Dialer{Timeout: c.timeout}

	nc, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial tcp at %s: %w", c.addr, err)
	}

	return nc, nil
}

// recordKey returns a host key callback that captures the canonical
// fingerprint and then defers to the configured extra check, if any.
func (c *Conn) recordKey() ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		c.fingerprint = sesh.NormalizeFingerprint(ssh.FingerprintLegacyMD5(key))

		if c.hostKeyCheck != nil {
			return c.hostKeyCheck(hostname, remote, key)
		}

		return nil
	}
}

// applyDeadline projects a context deadline onto the raw connection so the
// handshake cannot outlive the caller's budget.
func (c *Conn) applyDeadline(ctx context.Context, nc net.Conn) {
	if dl, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(dl)
	}
}

// sshClient returns the authenticated client for channel-level operations.
func (c *Conn) sshClient() (*ssh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("connection closed")
	}

	if c.client == nil {
		return nil, errors.New("connection not authenticated")
	}

	return c.client, nil
}

// isAuthFailure reports whether err is a credentials rejection.
// x/crypto/ssh does not export a typed auth failure, so the stable message
// prefix is matched instead.
func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ssh: unable to authenticate")
}

// loadSigner reads and parses a private key file, decrypting it with
// passphrase when one is supplied.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt private key file: %w", err)
		}

		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key file: %w", err)
	}

	return signer, nil
}

// checkKeyPair verifies that the authorized-keys formatted public key at
// path belongs to signer's private key.
func checkKeyPair(path string, signer ssh.Signer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}

	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return fmt.Errorf("failed to parse public key file: %w", err)
	}

	if !bytes.Equal(pub.Marshal(), signer.PublicKey().Marshal()) {
		return fmt.Errorf("public key %s does not match the private key", path)
	}

	return nil
}
