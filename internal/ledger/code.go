package ledger

import (
	"strings"

	"github.com/iliyamo/parking-reservation/internal/utils"
)

// ReleaseCodeLength is the number of characters in a release code.
const ReleaseCodeLength = 6

// NewReleaseCode returns a fresh upper-case alphanumeric release code.
func NewReleaseCode() (string, error) {
	return utils.RandomCode(ReleaseCodeLength)
}

// NormalizeCode trims and upper-cases a code typed by a driver so that
// lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
