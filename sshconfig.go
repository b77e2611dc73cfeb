package sesh

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// FromSSHConfig loads a Config from an OpenSSH client config file. When path
// is empty it reads ~/.ssh/config, mirroring OpenSSH's own lookup.
func FromSSHConfig(alias, path string) (Config, error) {
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".ssh", "config")
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return FromSSHConfigReader(alias, f)
}

// FromSSHConfigReader parses OpenSSH client config data and resolves alias to
// the actual HostName, User, Port and IdentityFile. An IdentityFile entry
// selects public-key authentication.
func FromSSHConfigReader(alias string, r io.Reader) (Config, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse ssh config: %w", err)
	}

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil || hostName == "" {
		hostName = alias // Fallback if no HostName defined
	}

	username, _ := cfg.Get(alias, "User")
	if username == "" {
		// Use current system user if not specified in config
		u, _ := user.Current()
		if u != nil {
			username = u.Username
		}
	}

	portStr, _ := cfg.Get(alias, "Port")

	port := DefaultPort
	if portStr != "" {
		_, _ = fmt.Sscanf(portStr, "%d", &port)
	}

	identityFile, _ := cfg.Get(alias, "IdentityFile")
	if strings.HasPrefix(identityFile, "~/") {
		identityFile = filepath.Join(os.Getenv("HOME"), identityFile[2:])
	}

	c := Config{
		Host: hostName,
		Port: port,
		User: username,
	}

	if identityFile != "" {
		c.Auth = AuthPublicKey
		c.PrivateKeyPath = identityFile
	}

	return c.Resolve(), nil
}
