package auth

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/contactkeep/contactkeep/internal/logging"
	"github.com/contactkeep/contactkeep/internal/user"
)

// EmailService defines the interface for outbound email
type EmailService interface {
	SendConfirmationEmail(ctx context.Context, toEmail, username, token string) error
}

// Tokens is the token pair returned by login and refresh
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service handles authentication business logic
type Service struct {
	userRepo     *user.Repository
	tokens       *TokenService
	emailService EmailService
	logger       *logging.Logger
}

func NewService(
	userRepo *user.Repository,
	tokens *TokenService,
	emailService EmailService,
	logger *logging.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		tokens:       tokens,
		emailService: emailService,
		logger:       logger,
	}
}

// Signup creates a new user account and sends a confirmation email
func (s *Service) Signup(ctx context.Context, email, username, password string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := gravatarURL(email)
	newUser, err := s.userRepo.Create(ctx, email, username, string(passwordHash), &avatar)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendConfirmationEmail(newUser.Email, newUser.Username)

	return newUser, nil
}

// Login authenticates a user and returns a token pair. The stored
// refresh token is overwritten, invalidating the previous one.
func (s *Service) Login(ctx context.Context, email, password string) (*Tokens, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !existing.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.issueTokenPair(ctx, existing)
}

// Refresh exchanges a valid refresh token for a new token pair. The
// token must match the one stored on the user row; on mismatch the
// stored token is cleared so a replayed old token cannot be retried.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	email, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if existing.RefreshToken == nil || *existing.RefreshToken != refreshToken {
		if err := s.userRepo.UpdateRefreshToken(ctx, existing.ID, nil); err != nil {
			s.logger.Warn("failed to clear refresh token", "error", err.Error())
		}
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokenPair(ctx, existing)
}

// Logout clears the stored refresh token
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.userRepo.UpdateRefreshToken(ctx, userID, nil)
}

// ConfirmEmail flips the confirmed flag for the token's subject.
// Idempotent from the caller's view: a second confirmation reports
// ErrAlreadyConfirmed rather than flipping anything.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.tokens.VerifyEmailToken(token)
	if err != nil {
		return err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrVerification
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existing.Confirmed {
		return ErrAlreadyConfirmed
	}

	if err := s.userRepo.ConfirmEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}

	return nil
}

// RequestConfirmEmail resends the confirmation email.
// Always returns nil to prevent email enumeration attacks.
func (s *Service) RequestConfirmEmail(ctx context.Context, email string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for resend confirmation", "error", err.Error())
		return nil
	}

	if existing.Confirmed {
		return nil
	}

	s.sendConfirmationEmail(existing.Email, existing.Username)

	return nil
}

// UpdateAvatar replaces the user's avatar reference
func (s *Service) UpdateAvatar(ctx context.Context, email, url string) (*user.User, error) {
	updated, err := s.userRepo.UpdateAvatar(ctx, email, url)
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return updated, nil
}

// issueTokenPair creates access and refresh tokens and persists the
// refresh token on the user row.
func (s *Service) issueTokenPair(ctx context.Context, u *user.User) (*Tokens, error) {
	accessToken, err := s.tokens.IssueAccessToken(u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, u.ID, &refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// sendConfirmationEmail issues an email token and sends the
// confirmation email in a goroutine (non-blocking).
func (s *Service) sendConfirmationEmail(email, username string) {
	token, err := s.tokens.IssueEmailToken(email)
	if err != nil {
		s.logger.Warn("failed to create email token", "email", email, "error", err.Error())
		return
	}

	go func() {
		// Fresh context: the request context is gone by the time this runs.
		emailCtx := context.Background()
		if err := s.emailService.SendConfirmationEmail(emailCtx, email, username, token); err != nil {
			// User can request a new confirmation email later.
			s.logger.Warn("failed to send confirmation email", "email", email, "error", err.Error())
		}
	}()
}

// gravatarURL derives the Gravatar image URL for an email address
func gravatarURL(email string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", hash)
}
