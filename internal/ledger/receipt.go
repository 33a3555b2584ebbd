package ledger

import "github.com/oklog/ulid/v2"

// NewReceiptID returns a time-ordered withdrawal receipt id.
func NewReceiptID() string {
	return ulid.Make().String()
}
