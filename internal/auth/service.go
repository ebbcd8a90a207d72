package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/Typerace/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const tokenTTL = 24 * time.Hour

type claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 bearer tokens.
type Service struct {
	secret []byte
	users  *UserRepository
}

func NewService(secret string, users *UserRepository) *Service {
	return &Service{secret: []byte(secret), users: users}
}

// Issue checks the credentials against the user store and returns a
// signed token for the login.
func (s *Service) Issue(login, password string) (string, error) {
	user, ok := s.users.GetByLogin(login)
	if !ok || user.Password != password {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Login: user.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "typerace",
		},
	})
	return token.SignedString(s.secret)
}

// Verify validates a bearer token and extracts the player identity.
// Every failure mode collapses into ErrInvalidToken.
func (s *Service) Verify(tokenString string) (domain.PlayerID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	id, err := domain.NewPlayerID(c.Login)
	if err != nil {
		return "", ErrInvalidToken
	}
	return id, nil
}
