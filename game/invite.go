package game

import (
	"context"
	"crypto/rand"
	"math/big"
)

const (
	inviteAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength = 6
	maxInviteRetries = 10
)

// CodeGenerator produces candidate invite codes.
type CodeGenerator func() string

// RandomInviteCode returns a 6-character uppercase alphanumeric code.
func RandomInviteCode() string {
	b := make([]byte, inviteCodeLength)
	alpha := big.NewInt(int64(len(inviteAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, alpha)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		b[i] = inviteAlphabet[n.Int64()]
	}
	return string(b)
}

// IsInviteCode reports whether s has the invite code shape.
func IsInviteCode(s string) bool {
	if len(s) != inviteCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// uniqueInviteCode draws codes until one is free, giving up after
// maxInviteRetries regenerations and returning the last candidate.
// A leftover collision is rejected by the games primary key on insert.
func uniqueInviteCode(ctx context.Context, tx Tx, gen CodeGenerator) (string, int, error) {
	code := gen()
	attempts := 0
	for ; attempts < maxInviteRetries; attempts++ {
		exists, err := tx.GameExists(ctx, code)
		if err != nil {
			return "", attempts, err
		}
		if !exists {
			return code, attempts, nil
		}
		code = gen()
	}
	return code, attempts, nil
}
