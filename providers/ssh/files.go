package ssh

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/sftp"
	"github.com/ruffel/sesh/fileutil"
)

// upload copies a single local file to the remote path using SFTP.
func (c *Conn) upload(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	client, err := c.sshClient()
	if err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("failed to create sftp client: %w", err)
	}

	defer func() { _ = sftpClient.Close() }()

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	// Size for progress reporting
	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	dst, err := sftpClient.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", remotePath, err)
	}

	defer func() { _ = dst.Close() }()

	if err := sftpClient.Chmod(remotePath, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file: %w", err)
	}

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: src}
	if c.progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: c.progress}
	}

	_, err = io.Copy(dst, reader)

	return err
}

// download copies a single remote file to the local path using SFTP.
func (c *Conn) download(ctx context.Context, remotePath, localPath string) error {
	client, err := c.sshClient()
	if err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("failed to create sftp client: %w", err)
	}

	defer func() { _ = sftpClient.Close() }()

	src, err := sftpClient.Open(remotePath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var (
		size int64
		mode os.FileMode = 0o644
	)

	if info, err := src.Stat(); err == nil {
		size = info.Size()
		mode = info.Mode()
	}

	// Ensure parent exists
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = dst.Close() }()

	if err := os.Chmod(localPath, mode); err != nil {
		return fmt.Errorf("failed to chmod local file: %w", err)
	}

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: src}
	if c.progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: c.progress}
	}

	_, err = io.Copy(dst, reader)

	return err
}
