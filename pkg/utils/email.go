package utils

import (
	"net/mail"
	"strings"
)

// NameFromEmail returns the part of an address before the first '@', used as a greeting name.
// Addresses without '@' greet a generic "User".
func NameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return "User"
}

// NormalizeEmail lower-cases and trims an address, rejecting malformed input.
func NormalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}
