package tokenstore

import "context"

// Keys of the persisted token triple.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
)

// Store is the durable key-value region holding the current token triple.
// Values are plain strings at this boundary; token_expiry is the decimal
// encoding of an epoch-millisecond deadline.
type Store interface {
	// Get returns the stored value for key, with ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put writes the value for key, overwriting any previous value.
	Put(ctx context.Context, key, value string) error
}
