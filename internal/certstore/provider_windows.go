//go:build windows

package certstore

// NewSystemProvider constructs the platform-specific store provider.
func NewSystemProvider(commandRunner CommandRunner, fileSystem FileSystem, configuration Configuration) (Provider, error) {
	return NewSystemStoreProvider(configuration.Scope), nil
}
