package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tourbase/internal/common"
	"tourbase/internal/models"
	"tourbase/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the account credential lifecycle: signup, login, password
// change and the reset-secret round trip.
type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, plainSecret, newPassword string) (*models.User, string, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) (string, error)
}

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   TokenService
	mailer   Mailer
}

func NewAuthService(userRepo repositories.UserRepository, tokens TokenService, mailer Mailer) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
	}
}

func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*models.User, string, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, "", common.ValidationFailed("name, email and password are required")
	}
	if len(req.Password) < 8 {
		return nil, "", common.ValidationFailed("password must be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		return nil, "", common.ValidationFailed("passwords are not the same")
	}

	email := models.NormalizeEmail(req.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", common.Conflict("a user with that email already exists")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        email,
		Photo:        "default.jpg",
		Role:         models.RoleUser, // role is never client-supplied
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	// Welcome mail is best effort; a failed send never fails the signup.
	if err := s.mailer.SendWelcome(user, "/me"); err != nil {
		log.Printf("failed to send welcome email to %s: %v", user.Email, err)
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ValidationFailed("please provide email and password")
	}

	user, err := s.userRepo.GetByEmailWithPassword(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.Unauthenticated("incorrect email or password")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", common.Unauthenticated("incorrect email or password")
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword issues a reset secret, persists only its hash, and mails the
// plaintext link. If the mail cannot be sent the persisted token state is
// rolled back so the user is never stuck with an undeliverable secret.
func (s *authService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.userRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("user with that email address")
		}
		return err
	}

	plain, hash, expires, err := s.tokens.NewPasswordResetSecret()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, hash, expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/reset-password/%s", strings.TrimRight(resetURLBase, "/"), plain)
	if err := s.mailer.SendPasswordReset(user, resetURL); err != nil {
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			log.Printf("failed to roll back reset token for user %s: %v", user.ID, clearErr)
		}
		return common.Internal("there was an error sending the email, try again later").WithCause(err)
	}
	return nil
}

// ResetPassword redeems a reset secret. The lookup hashes the presented
// plaintext and matches it against an unexpired stored hash; the subsequent
// password write clears the token fields, making the secret single-use.
func (s *authService) ResetPassword(ctx context.Context, plainSecret, newPassword string) (*models.User, string, error) {
	if len(newPassword) < 8 {
		return nil, "", common.ValidationFailed("password must be at least 8 characters")
	}

	hash := s.tokens.HashResetSecret(plainSecret)
	user, err := s.userRepo.GetByResetTokenHash(ctx, hash, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.Unauthenticated("token is invalid or has expired")
		}
		return nil, "", err
	}

	token, err := s.rotatePassword(ctx, user, newPassword)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) (string, error) {
	if len(newPassword) < 8 {
		return "", common.ValidationFailed("password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByIDWithPassword(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.NotFound("user")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return "", common.Unauthenticated("current password is incorrect")
	}

	return s.rotatePassword(ctx, user, newPassword)
}

// rotatePassword writes the new hash and stamps the rotation time slightly in
// the past so a token issued in the same instant still verifies.
func (s *authService) rotatePassword(ctx context.Context, user *models.User, newPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := time.Now().Add(-2 * time.Second)
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash), changedAt); err != nil {
		return "", err
	}
	user.PasswordChangedAt = &changedAt

	return s.tokens.IssueSessionToken(user.ID)
}
