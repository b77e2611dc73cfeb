package ssh_test

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruffel/sesh"
	sshprovider "github.com/ruffel/sesh/providers/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

// testServer is an in-process SSH server that performs real handshakes. It
// accepts one user/password pair and optionally one public key; channel
// opens are rejected, which is all the handshake-level tests need.
type testServer struct {
	port        int
	fingerprint string
}

func startServer(t *testing.T, user, password string, authorizedKey gossh.PublicKey) *testServer {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	hostSigner, err := gossh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	cfg := &gossh.ServerConfig{
		PasswordCallback: func(meta gossh.ConnMetadata, pass []byte) (*gossh.Permissions, error) {
			if meta.User() == user && string(pass) == password {
				return nil, nil
			}

			return nil, errors.New("access denied")
		},
	}

	if authorizedKey != nil {
		cfg.PublicKeyCallback = func(meta gossh.ConnMetadata, key gossh.PublicKey) (*gossh.Permissions, error) {
			if meta.User() == user && bytes.Equal(key.Marshal(), authorizedKey.Marshal()) {
				return nil, nil
			}

			return nil, errors.New("access denied")
		}
	}

	cfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}

			go func(nc net.Conn) {
				defer func() { _ = nc.Close() }()

				sc, chans, reqs, err := gossh.NewServerConn(nc, cfg)
				if err != nil {
					return
				}

				defer func() { _ = sc.Close() }()

				go gossh.DiscardRequests(reqs)

				for newCh := range chans {
					_ = newCh.Reject(gossh.Prohibited, "not supported in tests")
				}
			}(nc)
		}
	}()

	return &testServer{
		port:        ln.Addr().(*net.TCPAddr).Port,
		fingerprint: sesh.NormalizeFingerprint(gossh.FingerprintLegacyMD5(hostSigner.PublicKey())),
	}
}

func TestConn_Fingerprint(t *testing.T) {
	t.Parallel()

	srv := startServer(t, "alice", "secret", nil)

	conn, err := sshprovider.New().Dial(t.Context(), "127.0.0.1", srv.port)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	// The probe handshake captures the host key without authenticating.
	fp, err := conn.Fingerprint(t.Context())
	require.NoError(t, err)
	assert.Equal(t, srv.fingerprint, fp)

	// Cached on repeat.
	again, err := conn.Fingerprint(t.Context())
	require.NoError(t, err)
	assert.Equal(t, fp, again)
}

func TestConn_AuthPassword(t *testing.T) {
	t.Parallel()

	srv := startServer(t, "alice", "secret", nil)

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		conn, err := sshprovider.New().Dial(t.Context(), "127.0.0.1", srv.port)
		require.NoError(t, err)

		defer func() { _ = conn.Close() }()

		ok, err := conn.AuthPassword(t.Context(), "alice", "secret")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()

		conn, err := sshprovider.New().Dial(t.Context(), "127.0.0.1", srv.port)
		require.NoError(t, err)

		defer func() { _ = conn.Close() }()

		ok, err := conn.AuthPassword(t.Context(), "alice", "wrong")
		require.NoError(t, err, "a rejection is a result, not a failure")
		assert.False(t, ok)
	})
}

func TestConn_AuthPublicKey(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	sshPub, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)

	block, err := gossh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(block), 0o600))

	pubPath := filepath.Join(dir, "id_ed25519.pub")
	require.NoError(t, os.WriteFile(pubPath, gossh.MarshalAuthorizedKey(sshPub), 0o644))

	srv := startServer(t, "bob", "unused-password", sshPub)

	conn, err := sshprovider.New().Dial(t.Context(), "127.0.0.1", srv.port)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	ok, err := conn.AuthPublicKey(t.Context(), "bob", pubPath, privPath, "")
	require.NoError(t, err)
	assert.True(t, ok)
}

// The full sequence against a real SSH handshake: probe for the host key,
// verify it, redial, authenticate.
func TestSession_OverSSH(t *testing.T) {
	t.Parallel()

	srv := startServer(t, "alice", "secret", nil)

	cfg := sesh.Config{
		Host:            "127.0.0.1",
		Port:            srv.port,
		User:            "alice",
		HostFingerprint: srv.fingerprint,
		Auth:            sesh.AuthPassword,
		Password:        "secret",
	}

	s, err := sesh.New(t.Context(), cfg, sshprovider.New())
	require.NoError(t, err)

	assert.True(t, s.Connected())
	require.NoError(t, s.Close())
	assert.False(t, s.Connected())
}

func TestSession_OverSSH_FingerprintMismatch(t *testing.T) {
	t.Parallel()

	srv := startServer(t, "alice", "secret", nil)

	cfg := sesh.Config{
		Host:            "127.0.0.1",
		Port:            srv.port,
		User:            "alice",
		HostFingerprint: "CA:FE:BA:BE",
		Auth:            sesh.AuthPassword,
		Password:        "secret",
	}

	_, err := sesh.New(t.Context(), cfg, sshprovider.New())

	var mismatch *sesh.HostKeyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, srv.fingerprint, mismatch.Actual)
}
