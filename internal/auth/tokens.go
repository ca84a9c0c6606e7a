package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// NewResetToken returns a random 40 character hex token.
func NewResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewTemporaryPassword returns a random alphanumeric password of length n.
func NewTemporaryPassword(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate temporary password: %w", err)
		}
		out[i] = tempPasswordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
