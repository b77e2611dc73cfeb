package ssh

import (
	"context"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// Exec runs a command line on the remote host in a fresh SSH session and
// returns its combined output. Context cancellation kills the remote process
// and closes the session.
func (c *Conn) Exec(ctx context.Context, command string) ([]byte, error) {
	client, err := c.sshClient()
	if err != nil {
		return nil, err
	}

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh session: %w", err)
	}

	defer func() { _ = session.Close() }()

	// Monitor context cancellation for the lifetime of the command.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = session.Signal(ssh.SIGKILL)
			_ = session.Close()
		case <-done:
		}
	}()

	out, err := session.CombinedOutput(command)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}

	return out, err
}
