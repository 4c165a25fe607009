package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ksreyansh/vendor-management-system/internal/modules/user"
)

const tokenTTL = 24 * time.Hour

type service struct {
	userRepo  user.Repository
	tokenRepo TokenRepository
	secret    []byte
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, tokenRepo TokenRepository, secret []byte) Service {
	return &service{userRepo: userRepo, tokenRepo: tokenRepo, secret: secret}
}

// Login verifies the credentials, signs a fresh token and persists it so it
// can later be revoked.
func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &jwt.StandardClaims{
		Id:        uuid.New().String(),
		Subject:   u.ID.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	record := &Token{
		ID:     uuid.New(),
		UserID: u.ID,
		Token:  tokenString,
	}
	if err := s.tokenRepo.CreateToken(ctx, record); err != nil {
		return "", err
	}

	return tokenString, nil
}

// Logout revokes the presented token.
func (s *service) Logout(ctx context.Context, token string) error {
	return s.tokenRepo.DeleteToken(ctx, token)
}
