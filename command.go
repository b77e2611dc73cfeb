package sesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Command describes a remote command as a binary plus arguments. Building
// commands this way (rather than concatenating strings) is what keeps remote
// execution injection-safe: String quotes every argument before it ever
// touches a remote shell.
type Command struct {
	Cmd  string   // Binary name or path to executable
	Args []string // Arguments to pass to the binary
}

// NewCommand creates a new Command with the given binary and arguments.
func NewCommand(binary string, args ...string) *Command {
	return &Command{
		Cmd:  binary,
		Args: args,
	}
}

// ParseCommand parses a shell command string into a Command using shlex.
// It handles quoted arguments correctly.
func ParseCommand(cmdStr string) (*Command, error) {
	parts, err := shlex.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Cmd:  parts[0],
		Args: parts[1:],
	}, nil
}

// Validate checks that the command is well-formed.
// Returns an error if the command is nil or has an empty binary.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command cannot be nil")
	}

	if strings.TrimSpace(c.Cmd) == "" {
		return errors.New("command binary cannot be empty")
	}

	return nil
}

// String returns the shell-safe command line: every argument that could be
// interpreted by a POSIX shell is single-quoted with embedded quotes escaped.
func (c *Command) String() string {
	var b strings.Builder
	b.WriteString(c.Cmd)

	for _, arg := range c.Args {
		b.WriteString(" ")
		b.WriteString(Quote(arg))
	}

	return b.String()
}

// Quote returns s in a form safe to interpolate into a POSIX shell command
// line. Arguments made only of unambiguous characters pass through; anything
// else is single-quoted, with embedded single quotes escaped as '\''.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	if !strings.ContainsFunc(s, unsafeShellRune) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}

	return !strings.ContainsRune("_@%+=:,./-", r)
}
