package sesh

import "os"

// Option configures a Session at construction time.
type Option func(*Session)

// WithManualConnect defers the connect sequence: New returns a disconnected
// Session and the caller drives Connect (or Open plus an explicit login)
// itself. The default is to connect during New.
func WithManualConnect() Option {
	return func(s *Session) {
		s.autoConnect = false
	}
}

// FileConfig holds configuration for a single file transfer.
type FileConfig struct {
	Mode os.FileMode // Remote create mode for sent files
}

// DefaultFileConfig returns the transfer defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Mode: DefaultFileMode,
	}
}

// FileOption defines a functional option for file transfers.
type FileOption func(*FileConfig)

// WithMode overrides the create mode of the remote file.
func WithMode(mode os.FileMode) FileOption {
	return func(c *FileConfig) {
		c.Mode = mode
	}
}
