package mock

import (
	"context"
	"os"

	"github.com/ruffel/sesh"
	"github.com/stretchr/testify/mock"
)

// Transport implements a mock sesh.Transport using testify/mock.
type Transport struct {
	mock.Mock
}

var _ sesh.Transport = (*Transport)(nil)

// New creates a new mock transport.
func New() *Transport {
	return &Transport{}
}

// Dial mocks opening a transport connection.
func (m *Transport) Dial(ctx context.Context, host string, port int) (sesh.Conn, error) {
	args := m.Called(ctx, host, port)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(sesh.Conn), args.Error(1)
}

// Conn implements a mock sesh.Conn using testify/mock.
type Conn struct {
	mock.Mock
}

var _ sesh.Conn = (*Conn)(nil)

// NewConn creates a new mock connection.
func NewConn() *Conn {
	return &Conn{}
}

// Fingerprint mocks fetching the host key fingerprint.
func (m *Conn) Fingerprint(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

// AuthPassword mocks password authentication.
func (m *Conn) AuthPassword(ctx context.Context, user, password string) (bool, error) {
	args := m.Called(ctx, user, password)

	return args.Bool(0), args.Error(1)
}

// AuthPublicKey mocks public-key authentication.
func (m *Conn) AuthPublicKey(ctx context.Context, user, publicKeyPath, privateKeyPath, passphrase string) (bool, error) {
	args := m.Called(ctx, user, publicKeyPath, privateKeyPath, passphrase)

	return args.Bool(0), args.Error(1)
}

// Send mocks transferring a local file to the remote host.
func (m *Conn) Send(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	args := m.Called(ctx, localPath, remotePath, mode)

	return args.Error(0)
}

// Receive mocks transferring a remote file to the local filesystem.
func (m *Conn) Receive(ctx context.Context, remotePath, localPath string) error {
	args := m.Called(ctx, remotePath, localPath)

	return args.Error(0)
}

// Exec mocks running a remote command.
func (m *Conn) Exec(ctx context.Context, command string) ([]byte, error) {
	args := m.Called(ctx, command)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

// Close mocks closing the connection.
func (m *Conn) Close() error {
	args := m.Called()

	return args.Error(0)
}
