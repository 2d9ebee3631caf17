package protocols

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a connected filesystem from URL-derived options.
type Factory func(opts StorageOptions) (FileSystem, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a protocol available under its URL scheme. Registering the
// same scheme twice replaces the previous factory.
func Register(protocol string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[protocol] = factory
}

// Protocols lists the registered schemes in sorted order.
func Protocols() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filesystem instantiates the adapter registered for protocol.
func Filesystem(protocol string, opts StorageOptions) (FileSystem, error) {
	registryMu.RLock()
	factory, ok := registry[protocol]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown fs type: %s", protocol)
	}
	opts.Protocol = protocol
	return factory(opts)
}

// FromURL resolves a URL to a connected filesystem and the path inside it.
func FromURL(rawURL string) (FileSystem, string, error) {
	opts, err := InferStorageOptions(rawURL)
	if err != nil {
		return nil, "", err
	}
	fsys, err := Filesystem(opts.Protocol, opts)
	if err != nil {
		return nil, "", err
	}
	return fsys, StripProtocol(rawURL), nil
}
