//go:build !linux && !darwin && !windows

package certstore

import (
	"fmt"
	"runtime"
)

// NewSystemProvider constructs the platform-specific store provider.
func NewSystemProvider(commandRunner CommandRunner, fileSystem FileSystem, configuration Configuration) (Provider, error) {
	return nil, fmt.Errorf("unsupported operating system %s", runtime.GOOS)
}
