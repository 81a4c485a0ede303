// Package uid mints DICOM unique identifiers.
package uid

import (
	"math/big"

	"github.com/google/uuid"
)

// New returns a globally unique DICOM UID under the 2.25 UUID-derived root:
// "2.25." followed by the decimal value of a random 128-bit UUID. The result
// stays within the 64-character UI value limit.
func New() string {
	u := uuid.New()
	n := new(big.Int).SetBytes(u[:])
	return "2.25." + n.String()
}
