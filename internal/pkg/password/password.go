package password

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

// Hash derives a salted bcrypt hash from the plaintext at the default cost.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is
// not an error. bcrypt's comparison is constant-time.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Strong reports whether a password satisfies the strength policy:
// at least MinLength characters, one uppercase letter, one lowercase letter,
// one digit, and one symbol. Any rune that is neither a letter nor a digit
// counts as a symbol.
func Strong(pw string) bool {
	if len(pw) < MinLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// ValidEmail reports whether s looks like local@domain with a dotted domain.
// Character rules: exactly one '@'; non-empty local part; domain of at least
// two non-empty dot-separated labels with no whitespace anywhere.
func ValidEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') {
		return false
	}
	local, dom := s[:at], s[at+1:]
	if local == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	labels := strings.Split(dom, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}
