package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID string for a message id. ULIDs sort by creation time,
// which keeps file-store listings and DynamoDB scans roughly chronological.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
