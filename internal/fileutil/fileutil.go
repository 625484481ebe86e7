package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

const copyChunkSize = 64 * 1024

// CopyFile streams src to dst in bounded chunks. The data is written to a
// temporary file in the destination directory and renamed into place only
// after the final chunk, so a cancelled or failed copy never leaves a partial
// file at dst. Returns the number of bytes copied.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	// CreateTemp restricts the staging file to 0600; the rename would keep
	// that mode, so carry the source's permission bits over first.
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return 0, err
	}

	written, err := io.CopyBuffer(tmp, in, make([]byte, copyChunkSize))
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, err
	}
	return written, nil
}

// MoveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems. Returns the number of bytes relocated.
func MoveFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	size := info.Size()

	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
			return 0, err
		}
		if _, copyErr := CopyFile(src, dst); copyErr != nil {
			return 0, fmt.Errorf("cross-device move: %w", copyErr)
		}
		if err := CopyTimestamps(src, dst); err != nil {
			return 0, err
		}
		if err := os.Remove(src); err != nil {
			return 0, fmt.Errorf("remove source after cross-device move: %w", err)
		}
	}
	return size, nil
}

// CopyTimestamps applies the source file's access and modification times to dst.
func CopyTimestamps(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	mtime := info.ModTime()
	atime := mtime
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		atime = atimeFromStat(sys)
	}
	return os.Chtimes(dst, atime, mtime)
}

// EnsureDir creates the directory (and parents) if missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
