package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash an operator password is stored as.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(h), err
}

// ComparePassword reports a non-nil error unless plain matches hash.
func ComparePassword(plain, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
