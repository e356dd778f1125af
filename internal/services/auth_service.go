package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// AuthService issues access tokens for staff. It exists so every lifecycle,
// inventory and ledger write carries an authenticated actor; user
// administration is out of scope.
type AuthService struct {
	userRepo repositories.UserRepository
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Login verifies a staff PIN and returns the user with a signed access token.
// Unknown usernames, wrong PINs and deactivated accounts all return
// ErrInvalidCredentials.
func (s *AuthService) Login(username, pin string) (*models.User, string, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(pin)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Username, user.Name, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generating access token: %v", err)
	}
	return user, token, nil
}
