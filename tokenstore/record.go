package tokenstore

import (
	"strconv"
	"time"
)

// Record is the token triple read out of a Store. Expiry is an absolute
// epoch-millisecond deadline; zero means absent. A Record is a point-in-time
// snapshot, not a live view of the store.
type Record struct {
	AccessToken  string
	RefreshToken string
	Expiry       int64
}

// Valid reports whether the record holds an access token that has not expired
// at the given instant. The comparison is strict: a token expiring in the
// current millisecond is treated as expired.
func (r Record) Valid(now time.Time) bool {
	return r.AccessToken != "" && r.Expiry != 0 && now.UnixMilli() < r.Expiry
}

// FormatExpiry encodes an epoch-millisecond deadline for storage.
func FormatExpiry(expiry int64) string {
	return strconv.FormatInt(expiry, 10)
}

// ParseExpiry decodes a stored token_expiry value.
func ParseExpiry(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}
