package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zinema-api/internal/domain"
	"github.com/zinema-api/internal/infrastructure/smtp"
	"github.com/zinema-api/internal/pkg/password"
	pkgtoken "github.com/zinema-api/internal/pkg/token"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	SetResetToken(ctx context.Context, userID, token string, expiresAt int64) error
	ConsumeResetToken(ctx context.Context, userID, token, newHash string, now time.Time) error
}

type jwtSigner interface {
	Sign(userID, email string) (string, error)
}

type service struct {
	repo        userStore
	mailer      smtp.Mailer
	jwtProvider jwtSigner
	resetURL    string
	now         func() time.Time
}

func NewService(repo userStore, mailer smtp.Mailer, jwtProvider jwtSigner, resetURL string) Service {
	return &service{
		repo:        repo,
		mailer:      mailer,
		jwtProvider: jwtProvider,
		resetURL:    resetURL,
		now:         time.Now,
	}
}

// Login verifies credentials and issues a signed session token. Unknown
// email and wrong password produce the same error so a caller cannot tell
// which one failed.
func (s *service) Login(ctx context.Context, req LoginRequest) (string, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", fmt.Errorf("look up account: %w", err)
	}
	if !password.Verify(req.Password, u.PasswordHash) {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.jwtProvider.Sign(u.UserID, u.Email)
}

// RequestPasswordReset starts a reset cycle for the account behind email.
// When no account exists it returns nil: the handler response must be
// identical whether or not the email is registered, so account existence
// cannot be probed through this endpoint. Only a malformed email or an
// infrastructure failure surfaces as an error.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	if !password.ValidEmail(email) {
		return fmt.Errorf("invalid email address: %w", domain.ErrBadRequest)
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}

	tok, err := pkgtoken.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := pkgtoken.ExpiryFrom(s.now()).Unix()
	if err := s.repo.SetResetToken(ctx, u.UserID, tok, expiresAt); err != nil {
		return fmt.Errorf("persist reset token: %w", err)
	}

	link := s.resetURL + "?token=" + url.QueryEscape(tok)
	if err := s.mailer.SendHTML(u.Email, "Reset your Zinema password", recoveryEmailHTML(u.FirstName, link)); err != nil {
		slog.Error("failed to send recovery email", "user_id", u.UserID, "err", err)
		return fmt.Errorf("send recovery email: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token. The password write and the token
// clear happen in one conditional store operation, so a token can be
// redeemed at most once even under concurrent attempts.
func (s *service) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if token == "" || newPassword == "" || confirmPassword == "" {
		return fmt.Errorf("token, password and confirmPassword are required: %w", domain.ErrBadRequest)
	}
	if !password.Strong(newPassword) {
		return fmt.Errorf("password does not meet the strength policy: %w", domain.ErrBadRequest)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("password and confirmPassword do not match: %w", domain.ErrBadRequest)
	}

	u, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrBadRequest)
	}
	now := s.now()
	if !u.ResetTokenValid(now) {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrBadRequest)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.ConsumeResetToken(ctx, u.UserID, token, hash, now); err != nil {
		// The conditional write lost a race or the token expired in between.
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token: %w", domain.ErrBadRequest)
		}
		return err
	}
	return nil
}

func recoveryEmailHTML(firstName, link string) string {
	name := firstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>We received a request to reset your Zinema password. Click the link below to choose a new one. The link is valid for one hour and can be used once.</p>
<p><a href="%s">Reset my password</a></p>
<p>If you did not request this, you can safely ignore this email.</p>
</body></html>`, name, link)
}
