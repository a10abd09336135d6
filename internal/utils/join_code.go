package utils

import (
	"crypto/sha256"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/group-task-api/internal/constants"
)

// GenerateJoinCode derives a join code from the group name and the current
// time. The SHA-256 digest is mapped byte by byte onto the unambiguous
// alphabet (no I, O, 0 or 1). Uniqueness is the caller's job.
func GenerateJoinCode(name string, now time.Time) string {
	sum := sha256.Sum256([]byte(name + strconv.FormatInt(now.UnixNano(), 10)))

	alphabet := constants.JoinCodeAlphabet
	code := make([]byte, constants.JoinCodeLength)
	for i := range code {
		code[i] = alphabet[int(sum[i])%len(alphabet)]
	}
	return string(code)
}

// NormalizeJoinCode upper-cases and trims user input.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidJoinCode reports whether code has the right length and alphabet.
func IsValidJoinCode(code string) bool {
	if len(code) != constants.JoinCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(constants.JoinCodeAlphabet, r) {
			return false
		}
	}
	return true
}
