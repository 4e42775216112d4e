package ident

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a 26-character lowercase ULID. Ids generated within the same
// millisecond by one process are strictly increasing, so sorting by id breaks
// created_at ties in creation order.
func New() string {
	return strings.ToLower(ulid.Make().String())
}

// NewAt is like New but stamps the id with t.
func NewAt(t time.Time) string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String())
}

// Valid reports whether s looks like an id produced by New.
func Valid(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(s))
	return err == nil
}
