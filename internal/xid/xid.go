package xid

import (
	"github.com/google/uuid"
)

// New returns a prefixed unique identifier. IDs carry no wall-clock
// component, so rapid successive calls never collide.
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
