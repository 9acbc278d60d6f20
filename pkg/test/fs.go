// Package test contains fakes shared by the unit tests.
package test

import (
	"bytes"
	"io"
	"sync"
)

// FakeFileSystem provides a fake filesystem recording the operations
// performed against it.
type FakeFileSystem struct {
	ExistsFile   []string
	ExistsResult map[string]bool

	MkdirAllDir   []string
	MkdirAllError error

	WorkingDir      string
	WorkingDirError error

	RemoveDir      string
	RemoveDirError error

	OpenFile    string
	OpenContent string
	OpenError   error

	ReadFileName    string
	ReadFileContent string
	ReadFileError   error

	WriteFileName    string
	WriteFileContent []byte
	WriteFileError   error

	CopySource string
	CopyDest   string
	CopyError  error

	mutex sync.Mutex
}

func (f *FakeFileSystem) Exists(file string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.ExistsFile = append(f.ExistsFile, file)
	return f.ExistsResult[file]
}

func (f *FakeFileSystem) MkdirAll(dirname string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.MkdirAllDir = append(f.MkdirAllDir, dirname)
	return f.MkdirAllError
}

func (f *FakeFileSystem) CreateWorkingDirectory() (string, error) {
	return f.WorkingDir, f.WorkingDirError
}

func (f *FakeFileSystem) RemoveDirectory(dir string) error {
	f.RemoveDir = dir
	return f.RemoveDirError
}

func (f *FakeFileSystem) Open(file string) (io.ReadCloser, error) {
	f.OpenFile = file
	if f.OpenError != nil {
		return nil, f.OpenError
	}
	return io.NopCloser(bytes.NewReader([]byte(f.OpenContent))), nil
}

func (f *FakeFileSystem) ReadFile(file string) ([]byte, error) {
	f.ReadFileName = file
	return []byte(f.ReadFileContent), f.ReadFileError
}

func (f *FakeFileSystem) WriteFile(file string, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.WriteFileName = file
	f.WriteFileContent = data
	return f.WriteFileError
}

func (f *FakeFileSystem) Copy(source, dest string) error {
	f.CopySource = source
	f.CopyDest = dest
	return f.CopyError
}
