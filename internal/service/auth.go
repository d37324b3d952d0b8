package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignupInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
}

type AuthResult struct {
	Token string
	User  *model.User
}

type AuthService interface {
	RequestSignupOTP(ctx context.Context, email string) error
	CompleteSignup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authServiceImpl struct {
	userRepo repository.UserRepository
	notifier Notifier
	tokens   *auth.TokenManager
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	notifier Notifier,
	tokens *auth.TokenManager,
	validate *validator.Validate,
	logger *slog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		notifier: notifier,
		tokens:   tokens,
		validate: validate,
		logger:   logger.With("component", "auth"),
	}
}

func (s *authServiceImpl) RequestSignupOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		verr := &ValidationError{}
		verr.Add("email", "must be a valid email address")
		return verr
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if exists {
		return ErrUserExists
	}

	return s.notifier.SendOTP(ctx, email)
}

func (s *authServiceImpl) CompleteSignup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	verr := &ValidationError{}
	validateStruct(s.validate, "", input, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	if err := s.notifier.VerifyOTP(ctx, input.Email, input.OTP); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return s.issue(user)
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authServiceImpl) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authServiceImpl) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
