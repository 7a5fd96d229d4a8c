package services

import (
	"errors"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService issues admin bearer tokens. The merge engine has no
// end-user login; only admins authenticate against it.
type AuthService struct {
	store      *store.Store
	jwtSecret  []byte
	expiration time.Duration
}

func NewAuthService(s *store.Store, jwtSecret string, expiration time.Duration) *AuthService {
	return &AuthService{
		store:      s,
		jwtSecret:  []byte(jwtSecret),
		expiration: expiration,
	}
}

// Login verifies admin credentials and returns a signed HS256 bearer
// token. Non-admin accounts can hold valid passwords but cannot log in
// here.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(normalized)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsAdmin() {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		Issuer:    "mergegate",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}
