// Package seshtest provides a scripted in-memory sesh.Transport for
// exercising session behavior without a network.
//
// A Transport serves a set of fake hosts keyed by address. Each Host scripts
// a fingerprint, accepted credentials and an in-memory remote filesystem,
// and records every authentication attempt and executed command so tests can
// assert on interactions.
//
//	tr := seshtest.New()
//	host := tr.AddHost("host1", 22, seshtest.NewHost("DEADBEEF"))
//	host.Passwords["alice"] = "secret"
package seshtest

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ruffel/sesh"
)

// Host scripts one fake remote host. Fields may be populated directly; the
// attempt counters and command log fill in as a session drives the
// connection.
type Host struct {
	Fingerprint string            // Canonical form, e.g. "DEADBEEF"
	Passwords   map[string]string // user -> accepted password
	Keys        map[string]string // user -> accepted private key path
	Files       map[string][]byte // remote path -> content
	Modes       map[string]os.FileMode
	ExecOutput  []byte // Combined output returned by every command
	ExecErr     error  // When set, every command dispatch fails with it

	Commands         []string // Executed command lines, in order
	FingerprintCalls int
	PasswordAttempts int
	KeyAttempts      int
}

// NewHost creates a Host presenting the given canonical fingerprint.
func NewHost(fingerprint string) *Host {
	return &Host{
		Fingerprint: fingerprint,
		Passwords:   make(map[string]string),
		Keys:        make(map[string]string),
		Files:       make(map[string][]byte),
		Modes:       make(map[string]os.FileMode),
	}
}

// Transport implements sesh.Transport over a set of scripted hosts.
// Dialing an address with no host behaves like a refused connection.
type Transport struct {
	mu    sync.Mutex
	hosts map[string]*Host
	conns []*Conn
}

var _ sesh.Transport = (*Transport)(nil)

// New creates an empty Transport.
func New() *Transport {
	return &Transport{
		hosts: make(map[string]*Host),
	}
}

// AddHost registers h at host:port and returns it for further scripting.
func (t *Transport) AddHost(host string, port int, h *Host) *Host {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.hosts[addr(host, port)] = h

	return h
}

// Conns returns every connection handed out so far, in dial order, so tests
// can assert on teardown behavior.
func (t *Transport) Conns() []*Conn {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]*Conn(nil), t.conns...)
}

// Dial opens a connection to a scripted host.
func (t *Transport) Dial(ctx context.Context, host string, port int) (sesh.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.hosts[addr(host, port)]
	if !ok {
		return nil, fmt.Errorf("dial tcp %s: connection refused", addr(host, port))
	}

	c := &Conn{host: h}
	t.conns = append(t.conns, c)

	return c, nil
}

// Conn is one connection to a scripted host. Authed and Closed expose the
// connection state for assertions.
type Conn struct {
	host *Host

	Authed bool
	Closed bool
}

var _ sesh.Conn = (*Conn)(nil)

// Fingerprint returns the host's scripted fingerprint.
func (c *Conn) Fingerprint(ctx context.Context) (string, error) {
	if err := c.live(ctx); err != nil {
		return "", err
	}

	c.host.FingerprintCalls++

	return c.host.Fingerprint, nil
}

// AuthPassword accepts the credentials scripted in Host.Passwords.
func (c *Conn) AuthPassword(ctx context.Context, user, password string) (bool, error) {
	if err := c.live(ctx); err != nil {
		return false, err
	}

	c.host.PasswordAttempts++

	ok := password != "" && c.host.Passwords[user] == password
	if ok {
		c.Authed = true
	}

	return ok, nil
}

// AuthPublicKey accepts the key paths scripted in Host.Keys.
func (c *Conn) AuthPublicKey(ctx context.Context, user, publicKeyPath, privateKeyPath, passphrase string) (bool, error) {
	if err := c.live(ctx); err != nil {
		return false, err
	}

	c.host.KeyAttempts++

	ok := privateKeyPath != "" && c.host.Keys[user] == privateKeyPath
	if ok {
		c.Authed = true
	}

	return ok, nil
}

// Send stores the local file's content in the host's in-memory filesystem.
func (c *Conn) Send(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	if err := c.liveAuthed(ctx); err != nil {
		return err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	c.host.Files[remotePath] = data
	c.host.Modes[remotePath] = mode

	return nil
}

// Receive writes the scripted remote file's content to the local path.
func (c *Conn) Receive(ctx context.Context, remotePath, localPath string) error {
	if err := c.liveAuthed(ctx); err != nil {
		return err
	}

	data, ok := c.host.Files[remotePath]
	if !ok {
		return fmt.Errorf("remote file %q not found", remotePath)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(localPath, data, 0o644)
}

// Exec appends the command line to the host's log and fails when Host.ExecErr
// is scripted.
func (c *Conn) Exec(ctx context.Context, command string) ([]byte, error) {
	if err := c.liveAuthed(ctx); err != nil {
		return nil, err
	}

	c.host.Commands = append(c.host.Commands, command)

	if c.host.ExecErr != nil {
		return nil, c.host.ExecErr
	}

	return c.host.ExecOutput, nil
}

// Close marks the connection closed. It is idempotent.
func (c *Conn) Close() error {
	c.Closed = true

	return nil
}

func (c *Conn) live(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.Closed {
		return fmt.Errorf("connection closed")
	}

	return nil
}

func (c *Conn) liveAuthed(ctx context.Context) error {
	if err := c.live(ctx); err != nil {
		return err
	}

	if !c.Authed {
		return fmt.Errorf("connection not authenticated")
	}

	return nil
}

func addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
