package auth

import "strings"

// MinPasswordLength matches the policy of the registration form.
const MinPasswordLength = 6

// ValidatePassword checks the password against the registration policy.
func ValidatePassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// ValidateEmail checks if an email has a plausible format.
func ValidateEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at:], ".")
}
