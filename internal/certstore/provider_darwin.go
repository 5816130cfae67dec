//go:build darwin

package certstore

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultMachineKeychainPath = "/Library/Keychains/System.keychain"

// NewSystemProvider constructs the platform-specific store provider.
func NewSystemProvider(commandRunner CommandRunner, fileSystem FileSystem, configuration Configuration) (Provider, error) {
	keychainPath := configuration.MacOSKeychainPath
	if keychainPath == "" {
		if configuration.Scope == ScopeUser {
			homeDirectory, homeErr := os.UserHomeDir()
			if homeErr != nil {
				return nil, fmt.Errorf("resolve home directory: %w", homeErr)
			}
			keychainPath = filepath.Join(homeDirectory, "Library", "Keychains", "login.keychain-db")
		} else {
			keychainPath = defaultMachineKeychainPath
		}
	}
	return NewKeychainProvider(commandRunner, fileSystem, keychainPath), nil
}
