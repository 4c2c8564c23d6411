package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	codeMin  = 100000
	codeSpan = 900000
)

// NewCode returns a 6-digit verification code drawn uniformly from
// [100000, 999999]. The range guarantees the code never starts with a
// zero, so string and numeric representations are interchangeable.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}

// HashCode returns the SHA-256 digest of a verification code for
// constant-time comparison against stored records.
func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// NewDigits returns a string of n random decimal digits. Unlike
// NewCode, leading zeros are allowed; the result is suitable for
// generated username suffixes.
func NewDigits(n int) (string, error) {
	if n <= 0 || n > 32 {
		return "", errors.New("invalid digit count")
	}

	var b strings.Builder
	b.Grow(n)

	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}

	return b.String(), nil
}
