package utils

import "golang.org/x/crypto/bcrypt"

// PasswordCost applies to member passwords and storage slot pins.
var PasswordCost = bcrypt.DefaultCost

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), PasswordCost)
}

// PasswordMatches is false for an empty or malformed hash.
func PasswordMatches(hashed string, plain string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
