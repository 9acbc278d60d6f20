// Package fs provides the filesystem operations the build pipeline needs,
// behind an interface so tests can substitute a fake.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// FileSystem is the set of filesystem operations used during a build.
type FileSystem interface {
	Exists(file string) bool
	MkdirAll(dirname string) error
	CreateWorkingDirectory() (string, error)
	RemoveDirectory(dir string) error
	Open(file string) (io.ReadCloser, error)
	ReadFile(file string) ([]byte, error)
	WriteFile(file string, data []byte) error
	Copy(sourcePath, targetPath string) error
}

// NewFileSystem creates a new instance of the default FileSystem
// implementation.
func NewFileSystem() FileSystem {
	return &fs{}
}

type fs struct{}

func (h *fs) Exists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}

func (h *fs) MkdirAll(dirname string) error {
	return os.MkdirAll(dirname, 0700)
}

func (h *fs) CreateWorkingDirectory() (string, error) {
	directory, err := os.MkdirTemp("", "l2i")
	if err != nil {
		return "", fmt.Errorf("error creating temporary directory: %w", err)
	}
	return directory, nil
}

func (h *fs) RemoveDirectory(dir string) error {
	log.V(2).Infof("Removing directory '%s'", dir)
	err := os.RemoveAll(dir)
	if err != nil {
		log.Errorf("Error removing directory '%s': %v", dir, err)
	}
	return err
}

func (h *fs) Open(file string) (io.ReadCloser, error) {
	return os.Open(file)
}

func (h *fs) ReadFile(file string) ([]byte, error) {
	return os.ReadFile(file)
}

func (h *fs) WriteFile(file string, data []byte) error {
	return os.WriteFile(file, data, 0644)
}

func (h *fs) Copy(sourcePath string, targetPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err = os.MkdirAll(targetPath, 0755); err != nil {
			return err
		}
		entries, err := os.ReadDir(sourcePath)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			err = h.Copy(filepath.Join(sourcePath, entry.Name()), filepath.Join(targetPath, entry.Name()))
			if err != nil {
				return err
			}
		}
		return nil
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
