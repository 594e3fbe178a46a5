package domain

import "context"

// KeyValueStore is the durable, string-keyed storage behind sessions and
// lineage charts. Values are opaque JSON documents. A write either fully
// succeeds or leaves the previous value in place.
type KeyValueStore interface {
	// Get returns the value stored at key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value at key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// DeviceKey namespaces a durable key to one device. An empty device yields the
// bare key.
func DeviceKey(device, key string) string {
	if device == "" {
		return key
	}
	return device + "/" + key
}
