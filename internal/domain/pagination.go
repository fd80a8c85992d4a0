package domain

import (
	"encoding/base64"
	"strconv"
)

// DefaultMaxResults is the page size used when the caller does not ask for one.
const DefaultMaxResults = 100

// MaxMaxResults caps the page size a caller may request.
const MaxMaxResults = 1000

// PageRequest holds pagination parameters for list operations. The token is
// opaque to callers; internally it is a base64-encoded row offset.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset decodes the page token into a row offset. Empty, malformed, or
// negative tokens decode to 0 rather than failing the request.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	decoded, err := base64.StdEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Limit returns the effective page size, clamped to [1, MaxMaxResults].
func (p PageRequest) Limit() int {
	if p.MaxResults <= 0 {
		return DefaultMaxResults
	}
	if p.MaxResults > MaxMaxResults {
		return MaxMaxResults
	}
	return p.MaxResults
}

// EncodePageToken creates an opaque page token from a row offset. Offset 0
// encodes to the empty token (first page).
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the token for the page after [offset, offset+limit),
// or "" when that page would start at or past total.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodePageToken(next)
}
