package util

import (
	"regexp"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	lowerPattern = regexp.MustCompile("[a-z]")
	upperPattern = regexp.MustCompile("[A-Z]")
	digitPattern = regexp.MustCompile("[0-9]")
	otherPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateName checks the display name shown in the client header.
func ValidateName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= 50
}

func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowerPattern.MatchString(password) &&
		upperPattern.MatchString(password) &&
		digitPattern.MatchString(password) &&
		otherPattern.MatchString(password)
}
