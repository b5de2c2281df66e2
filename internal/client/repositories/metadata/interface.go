package metadata

import "context"

// Well-known metadata keys.
const (
	KeyToken    = "token"     // bearer token for the remote API
	KeyDeviceID = "device_id" // stable per-install identifier
	KeyProfile  = "profile"   // cached JSON copy of the user profile
)

// Repository is a small key/value store for client state that does not
// belong to any mirrored collection: the auth token, the device id and
// the cached profile.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
