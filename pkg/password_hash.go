package pkg

import "golang.org/x/crypto/bcrypt"

// bcryptCost used when generating new admin password hashes.
const bcryptCost = 14

// HashPassword produces the bcrypt hash stored in the server credentials.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return BytesToString(bytes), err
}

// CheckPasswordHash reports whether password matches the stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
