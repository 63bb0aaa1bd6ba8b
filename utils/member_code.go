package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// Member code prefixes per role tier. The code is the human-facing handle a
// new joiner gives as their sponsor reference.
const memberCodePrefix = "UPL"

// GenerateMemberCode generates a member code of the form UPL-XXXXXX where
// the suffix is 6 random alphanumeric characters. Uniqueness is enforced by
// the memberCode index; callers retry on a duplicate-key error.
func GenerateMemberCode() (string, error) {
	// 4 random bytes give 6 usable base32 characters
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr[:6])
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return memberCodePrefix + "-" + randomStr, nil
}
