package certstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem abstracts the file operations the store backends depend on.
type FileSystem interface {
	FileExists(path string) (bool, error)
	DirectoryExists(path string) (bool, error)
	EnsureDirectory(path string, permissions fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte, permissions fs.FileMode) error
	Remove(path string) error
	ListFiles(directoryPath string) ([]string, error)
	WriteTemporaryFile(pattern string, content []byte) (string, error)
}

// OperatingSystemFileSystem implements FileSystem using the local disk.
type OperatingSystemFileSystem struct{}

// NewOperatingSystemFileSystem constructs an OperatingSystemFileSystem.
func NewOperatingSystemFileSystem() OperatingSystemFileSystem {
	return OperatingSystemFileSystem{}
}

// FileExists reports whether a regular file exists at path.
func (fileSystem OperatingSystemFileSystem) FileExists(path string) (bool, error) {
	information, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}
		return false, statErr
	}
	return !information.IsDir(), nil
}

// DirectoryExists reports whether a directory exists at path.
func (fileSystem OperatingSystemFileSystem) DirectoryExists(path string) (bool, error) {
	information, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}
		return false, statErr
	}
	return information.IsDir(), nil
}

// EnsureDirectory creates the directory and any missing parents.
func (fileSystem OperatingSystemFileSystem) EnsureDirectory(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// ReadFile reads the entire file at path.
func (fileSystem OperatingSystemFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes content to path, replacing any existing file.
func (fileSystem OperatingSystemFileSystem) WriteFile(path string, content []byte, permissions fs.FileMode) error {
	return os.WriteFile(path, content, permissions)
}

// Remove deletes the file at path.
func (fileSystem OperatingSystemFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// ListFiles returns the names of the regular files in directoryPath.
func (fileSystem OperatingSystemFileSystem) ListFiles(directoryPath string) ([]string, error) {
	entries, readErr := os.ReadDir(directoryPath)
	if readErr != nil {
		return nil, readErr
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// WriteTemporaryFile writes content to a fresh file in the default temporary
// directory and returns its path. The caller removes the file.
func (fileSystem OperatingSystemFileSystem) WriteTemporaryFile(pattern string, content []byte) (string, error) {
	temporaryFile, createErr := os.CreateTemp("", pattern)
	if createErr != nil {
		return "", fmt.Errorf("create temporary file: %w", createErr)
	}
	temporaryPath := temporaryFile.Name()
	_, writeErr := temporaryFile.Write(content)
	closeErr := temporaryFile.Close()
	if writeErr != nil {
		_ = os.Remove(temporaryPath)
		return "", fmt.Errorf("write temporary file: %w", writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(temporaryPath)
		return "", fmt.Errorf("close temporary file: %w", closeErr)
	}
	return filepath.Clean(temporaryPath), nil
}
