package auth

import "golang.org/x/crypto/bcrypt"

const (
	VoterHashCost = bcrypt.DefaultCost
	// Admin passwords get a higher cost since those accounts are long lived.
	AdminHashCost = 12
)

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
