package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Claims carried in the bearer token. MFAVerified is set only when the
// login presented a valid TOTP code; mutating endpoints gate on it.
type Claims struct {
	AdminID     string `json:"aid"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	MFAVerified bool   `json:"mfa"`
	jwt.RegisteredClaims
}

// AdminContext is the authenticated caller as carried on the request
// context by the auth middleware.
type AdminContext struct {
	AdminID     string
	Role        string
	Email       string
	MFAVerified bool
}

// IsSuperAdmin reports whether the caller bypasses per-route grants.
func (a AdminContext) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
