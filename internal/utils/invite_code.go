package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/yukikurage/timecard-api/internal/constants"
)

const inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInviteCode returns an upper-case alphanumeric team invite code
func GenerateInviteCode() (string, error) {
	var b strings.Builder
	b.Grow(constants.InviteCodeLength)

	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < constants.InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeInviteCode trims and upper-cases user input
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
