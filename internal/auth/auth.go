package auth

import (
	"errors"
	"time"

	"videotube/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Claims identifies an account. Access tokens also carry the public account
// fields; refresh tokens carry the id only.
type Claims struct {
	AccountID string `json:"_id"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	FullName  string `json:"fullName,omitempty"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func GenerateAccessToken(a *models.Account, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		AccountID: a.ID.Hex(),
		Email:     a.Email,
		Username:  a.Username,
		FullName:  a.FullName,
		Type:      typeAccess,
	}
	return sign(claims, secret, ttl)
}

func GenerateRefreshToken(accountID string, secret string, ttl time.Duration) (string, error) {
	return sign(Claims{AccountID: accountID, Type: typeRefresh}, secret, ttl)
}

// sign stamps subject, expiry and a unique id so two tokens minted in the
// same second still differ.
func sign(claims Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.AccountID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAccessToken(tokenStr, secret string) (*Claims, error) {
	return parse(tokenStr, secret, typeAccess)
}

func ParseRefreshToken(tokenStr, secret string) (*Claims, error) {
	return parse(tokenStr, secret, typeRefresh)
}

func parse(tokenStr, secret, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != typ {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}
