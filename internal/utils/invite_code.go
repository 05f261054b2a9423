package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	inviteCodeGroups    = 3
	inviteCodeGroupSize = 4
)

// GenerateInviteCode returns a random workspace invite code like "9f2c-01ab-77de".
func GenerateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeGroups*inviteCodeGroupSize/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := hex.EncodeToString(buf)
	groups := make([]string, 0, inviteCodeGroups)
	for i := 0; i < len(encoded); i += inviteCodeGroupSize {
		groups = append(groups, encoded[i:i+inviteCodeGroupSize])
	}
	return strings.Join(groups, "-"), nil
}

// NormalizeInviteCode trims and lowercases user supplied codes.
func NormalizeInviteCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
