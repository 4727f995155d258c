package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/plantcare/plantcare-api/internal/crypto"
	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/repository"
	"github.com/plantcare/plantcare-api/internal/revocation"
)

var (
	ErrEmailRequired     = errors.New("email is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrInvalidRole       = errors.New("role must be Client or Admin")
	ErrUserExists        = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
)

// AuthService handles registration, sign-in and sign-out.
type AuthService struct {
	repo         *repository.UserRepository
	denylist     revocation.Denylist
	jwtSecret    string
	signupExpiry time.Duration
	signinExpiry time.Duration
	now          func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, denylist revocation.Denylist, secret string, signupExpiry, signinExpiry time.Duration) *AuthService {
	return &AuthService{
		repo:         repo,
		denylist:     denylist,
		jwtSecret:    secret,
		signupExpiry: signupExpiry,
		signinExpiry: signinExpiry,
		now:          time.Now,
	}
}

// Signup creates a user account and returns a short-lived token.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.SignupResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return model.SignupResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.SignupResponse{}, ErrPasswordRequired
	}

	role := model.RoleClient
	if req.Role != "" {
		role = model.Role(req.Role)
		if !role.Valid() {
			return model.SignupResponse{}, ErrInvalidRole
		}
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return model.SignupResponse{}, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.SignupResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.SignupResponse{}, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	// The unique index still catches a concurrent signup with the same email.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.SignupResponse{}, ErrUserExists
		}
		return model.SignupResponse{}, err
	}

	token, err := crypto.GenerateToken(user.ID, string(user.Role), s.jwtSecret, s.signupExpiry)
	if err != nil {
		return model.SignupResponse{}, err
	}

	return model.SignupResponse{
		Message: "User created successfully",
		Token:   token,
		User: model.UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

// Signin checks the credentials and returns a token.
func (s *AuthService) Signin(ctx context.Context, req model.SigninRequest) (model.SigninResponse, error) {
	if strings.TrimSpace(req.Email) == "" {
		return model.SigninResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.SigninResponse{}, ErrPasswordRequired
	}

	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.SigninResponse{}, ErrUserNotFound
		}
		return model.SigninResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.SigninResponse{}, err
	}
	if !match {
		return model.SigninResponse{}, ErrIncorrectPassword
	}

	token, err := crypto.GenerateToken(user.ID, string(user.Role), s.jwtSecret, s.signinExpiry)
	if err != nil {
		return model.SigninResponse{}, err
	}

	return model.SigninResponse{Message: "Sign in successful", Token: token}, nil
}

// Signout revokes the token identified by tokenID until it expires.
func (s *AuthService) Signout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.denylist.Revoke(ctx, tokenID, expiresAt)
}
