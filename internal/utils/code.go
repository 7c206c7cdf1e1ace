package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet used for release codes and card identifiers.  Codes are typed
// by people so only digits and upper-case letters are used.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomCode returns n characters drawn uniformly from [0-9A-Z].
func RandomCode(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// NewCardID generates a login card identifier such as CARD-7K2M9QXA.
func NewCardID() (string, error) {
	s, err := RandomCode(8)
	if err != nil {
		return "", err
	}
	return "CARD-" + s, nil
}
