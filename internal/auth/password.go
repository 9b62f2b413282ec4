package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of pwd.
func HashPassword(pwd string) (string, error) {
	return hashWithCost(pwd, bcrypt.DefaultCost)
}

func hashWithCost(pwd string, cost int) (string, error) {
	if pwd == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares pwd with a stored hash.
func CheckPassword(hash, pwd string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pwd)) == nil
}
