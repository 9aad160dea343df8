package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/auth"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService issues session tokens. Registration is handled by the
// registration flow, not here; the only accounts that log in directly
// are admins and registrants who set a password.
type AuthService interface {
	Login(db *gorm.DB, req *LoginRequest) (*LoginResponse, error)
	CurrentUser(db *gorm.DB, userID string) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Login(db *gorm.DB, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.InternalError(err)
	}

	if user.PasswordHash == "" || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, appErrors.InternalError(err)
	}

	return &LoginResponse{Token: token, User: user}, nil
}

func (s *authService) CurrentUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
