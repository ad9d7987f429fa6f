package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/zinema-api/internal/domain"
	s3infra "github.com/zinema-api/internal/infrastructure/s3"
	"github.com/zinema-api/internal/pkg/id"
	"github.com/zinema-api/internal/pkg/password"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail        = "email"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldAge          = "age"
	fieldPasswordHash = "password_hash"
	fieldAvatarURL    = "avatar_url"
	fieldAvatarKey    = "avatar_key"
)

// avatarURLTTL bounds how long a presigned avatar link stays valid. Reads
// mint a fresh link, so expiry only affects clients holding an old response.
const avatarURLTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) (*domain.User, error)
	SetAvatar(ctx context.Context, userID, filename string, r io.Reader) (string, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, userID string) (*domain.User, error)
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    userStore
	avatars avatarStore
}

func NewService(repo userStore, avatars avatarStore) Service {
	return &service{repo: repo, avatars: avatars}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validateProfile(req.FirstName, req.LastName, req.Age); err != nil {
		return nil, err
	}
	if !password.ValidEmail(req.Email) {
		return nil, fmt.Errorf("invalid email address: %w", domain.ErrBadRequest)
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("password and confirmPassword do not match: %w", domain.ErrBadRequest)
	}
	if !password.Strong(req.Password) {
		return nil, fmt.Errorf("password does not meet the strength policy: %w", domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Age:          req.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.refreshAvatarURL(ctx, u)
	return u, nil
}

// refreshAvatarURL replaces the stored avatar link with a freshly presigned
// one. The stored link is kept as a fallback when presigning fails.
func (s *service) refreshAvatarURL(ctx context.Context, u *domain.User) {
	if u.AvatarKey == "" {
		return
	}
	url, err := s.avatars.PresignedURL(ctx, u.AvatarKey, avatarURLTTL)
	if err != nil {
		slog.Error("presign avatar url", "user_id", u.UserID, "error", err)
		return
	}
	u.AvatarURL = url
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, fmt.Errorf("firstName must not be blank: %w", domain.ErrBadRequest)
		}
		updates[fieldFirstName] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, fmt.Errorf("lastName must not be blank: %w", domain.ErrBadRequest)
		}
		updates[fieldLastName] = strings.TrimSpace(*req.LastName)
	}
	if req.Age != nil {
		if *req.Age < domain.MinAge {
			return nil, fmt.Errorf("age must be at least %d: %w", domain.MinAge, domain.ErrBadRequest)
		}
		updates[fieldAge] = *req.Age
	}
	if req.Email != nil {
		if !password.ValidEmail(*req.Email) {
			return nil, fmt.Errorf("invalid email address: %w", domain.ErrBadRequest)
		}
		if other, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && other.UserID != userID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Password != nil {
		if req.ConfirmPassword == nil || *req.Password != *req.ConfirmPassword {
			return nil, fmt.Errorf("password and confirmPassword do not match: %w", domain.ErrBadRequest)
		}
		if !password.Strong(*req.Password) {
			return nil, fmt.Errorf("password does not meet the strength policy: %w", domain.ErrBadRequest)
		}
		hash, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		updates[fieldPasswordHash] = hash
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.HardDelete(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.AvatarKey != "" {
		// The account is already gone; an orphaned object is only logged.
		if err := s.avatars.Delete(ctx, u.AvatarKey); err != nil {
			slog.Error("delete avatar object", "user_id", u.UserID, "error", err)
		}
	}
	return u, nil
}

// SetAvatar uploads the image to S3 under a per-user key, removes the
// previous object when the key changes, and records the key plus a
// presigned link on the profile.
func (s *service) SetAvatar(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	contentType := s3infra.ContentTypeForAvatar(filename)
	if contentType == "" {
		return "", fmt.Errorf("avatar must be a jpeg, png or webp image: %w", domain.ErrBadRequest)
	}
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	key := "avatars/" + userID + strings.ToLower(path.Ext(filename))
	if err := s.avatars.Upload(ctx, key, r, contentType); err != nil {
		return "", err
	}
	if current.AvatarKey != "" && current.AvatarKey != key {
		if err := s.avatars.Delete(ctx, current.AvatarKey); err != nil {
			slog.Error("delete replaced avatar object", "user_id", userID, "error", err)
		}
	}
	url, err := s.avatars.PresignedURL(ctx, key, avatarURLTTL)
	if err != nil {
		return "", err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{
		fieldAvatarKey: key,
		fieldAvatarURL: url,
	}); err != nil {
		return "", err
	}
	return url, nil
}

func validateProfile(firstName, lastName string, age int) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return fmt.Errorf("firstName and lastName must not be blank: %w", domain.ErrBadRequest)
	}
	if age < domain.MinAge {
		return fmt.Errorf("age must be at least %d: %w", domain.MinAge, domain.ErrBadRequest)
	}
	return nil
}
