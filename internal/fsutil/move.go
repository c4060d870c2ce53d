package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charlievieth/fastwalk"
)

// Retry policy for rename and remove. Virus scanners and indexers briefly
// hold handles on freshly extracted files, mostly on Windows.
const (
	retryInterval = 50 * time.Millisecond
	retryAttempts = 5
)

// ErrNotDirectory is returned when a move source is not a directory.
var ErrNotDirectory = errors.New("not a directory")

func retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), retryAttempts),
		ctx,
	)
	return backoff.Retry(op, b)
}

// MoveDir moves src to dst, replacing whatever is at dst. The rename is
// retried on transient failures; when it cannot succeed (a different
// volume, typically the OS temp dir) the tree is copied and src removed.
func MoveDir(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("moving %s: %w", src, ErrNotDirectory)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dst, err)
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := RemoveAll(ctx, dst); err != nil {
			return fmt.Errorf("removing existing %s: %w", dst, err)
		}
	}

	renameErr := retry(ctx, func() error {
		err := os.Rename(src, dst)
		if errors.Is(err, syscall.EXDEV) {
			return backoff.Permanent(err)
		}
		return err
	})
	if renameErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("moving %s: %w", src, ctx.Err())
	}

	// Rename may fail across filesystems; try copy.
	if err := CopyDir(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("moving %s to %s: %w (rename: %v)", src, dst, err, renameErr)
	}
	if err := RemoveAll(ctx, src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

// Rename renames oldPath to newPath with retry. Unlike MoveDir it never
// replaces an existing target and never falls back to copying.
func Rename(ctx context.Context, oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("renaming %s: %w", oldPath, os.ErrExist)
	}
	if err := retry(ctx, func() error { return os.Rename(oldPath, newPath) }); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

// RemoveAll removes path and everything below it, retrying transient
// failures. A missing path is not an error.
func RemoveAll(ctx context.Context, path string) error {
	if err := retry(ctx, func() error { return os.RemoveAll(path) }); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// CopyDir recursively copies src to dst, preserving permissions.
// Symlinks and other special files are skipped.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type().IsRegular():
			return copyFile(p, target)
		}
		return nil
	})
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	// fastwalk visits siblings concurrently; the parent may not exist yet.
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return Chmod(dst, info.Mode().Perm())
}

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}
