//go:build linux

package certstore

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultLinuxMachineRootDirectory = "/usr/local/share/ca-certificates"

// NewSystemProvider constructs the platform-specific store provider.
func NewSystemProvider(commandRunner CommandRunner, fileSystem FileSystem, configuration Configuration) (Provider, error) {
	rootDirectoryPath := configuration.LinuxRootDirectory
	if rootDirectoryPath == "" {
		if configuration.Scope == ScopeUser {
			homeDirectory, homeErr := os.UserHomeDir()
			if homeErr != nil {
				return nil, fmt.Errorf("resolve home directory: %w", homeErr)
			}
			rootDirectoryPath = filepath.Join(homeDirectory, ".local", "share", "certimporter", "stores")
		} else {
			rootDirectoryPath = defaultLinuxMachineRootDirectory
		}
	}
	return NewDirectoryProvider(fileSystem, commandRunner, rootDirectoryPath, configuration.LinuxRehashExecutable), nil
}
