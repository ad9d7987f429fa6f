package user

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zinema-api/internal/domain"
	"github.com/zinema-api/internal/pkg/password"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) HardDelete(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAvatarStore struct{ mock.Mock }

func (m *mockAvatarStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	return m.Called(ctx, key, r, contentType).Error(0)
}
func (m *mockAvatarStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockAvatarStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// --- helpers ---

func ptr[T any](v T) *T { return &v }

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		FirstName:       "Bob",
		LastName:        "Stone",
		Age:             30,
		Email:           "bob@example.com",
		Password:        "Valid1Pass!",
		ConfirmPassword: "Valid1Pass!",
	}
}

// --- Register tests ---

func TestRegister_BlankNames(t *testing.T) {
	svc := NewService(&mockUserStore{}, nil)
	req := baseReq()
	req.FirstName = "   "
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_Underage(t *testing.T) {
	svc := NewService(&mockUserStore{}, nil)
	req := baseReq()
	req.Age = 12
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc := NewService(&mockUserStore{}, nil)
	req := baseReq()
	req.ConfirmPassword = "Other1Pass!"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := NewService(&mockUserStore{}, nil)
	req := baseReq()
	req.Password = "NoSymbol123"
	req.ConfirmPassword = "NoSymbol123"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(&domain.User{}, nil)

	svc := NewService(us, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	svc := NewService(us, nil)
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "bob@example.com", u.Email)
	// The stored hash verifies against the plaintext and never equals it.
	assert.True(t, password.Verify("Valid1Pass!", u.PasswordHash))
	assert.NotEqual(t, "Valid1Pass!", u.PasswordHash)
	assert.Nil(t, u.ResetToken)
	us.AssertExpectations(t)
}

// --- Update tests ---

func TestUpdate_EmptyRequest_ReturnsExistingUser(t *testing.T) {
	us := &mockUserStore{}
	existing := &domain.User{UserID: "u1", FirstName: "Bob"}
	us.On("Get", mock.Anything, "u1").Return(existing, nil)

	svc := NewService(us, nil)
	u, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	us.AssertExpectations(t)
}

func TestUpdate_BlankName(t *testing.T) {
	svc := NewService(&mockUserStore{}, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{FirstName: ptr("  ")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_EmailCollision(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{UserID: "u2"}, nil)

	svc := NewService(us, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Email: ptr("taken@example.com")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// Changing the email to the one already on the same account is not a conflict.
func TestUpdate_EmailOwnAddress(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(&domain.User{UserID: "u1"}, nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "bob@example.com"}, nil)

	svc := NewService(us, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Email: ptr("bob@example.com")})

	require.NoError(t, err)
}

func TestUpdate_PasswordWithoutConfirmation(t *testing.T) {
	svc := NewService(&mockUserStore{}, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Password: ptr("NewPass1!")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_PasswordChange_StoresHash(t *testing.T) {
	us := &mockUserStore{}
	var updates map[string]interface{}
	us.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	svc := NewService(us, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		Password:        ptr("NewPass1!"),
		ConfirmPassword: ptr("NewPass1!"),
	})

	require.NoError(t, err)
	hash, ok := updates[fieldPasswordHash].(string)
	require.True(t, ok)
	assert.True(t, password.Verify("NewPass1!", hash))
}

// --- Delete tests ---

func TestDelete_NotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("HardDelete", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := NewService(us, nil)
	_, err := svc.Delete(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete_ReturnsRemovedUser(t *testing.T) {
	us := &mockUserStore{}
	removed := &domain.User{UserID: "u1", Email: "bob@example.com"}
	us.On("HardDelete", mock.Anything, "u1").Return(removed, nil)

	svc := NewService(us, nil)
	u, err := svc.Delete(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, removed, u)
}

// --- SetAvatar tests ---

func TestSetAvatar_UnsupportedExtension(t *testing.T) {
	svc := NewService(&mockUserStore{}, &mockAvatarStore{})
	_, err := svc.SetAvatar(context.Background(), "u1", "avatar.gif", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestSetAvatar_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	as := &mockAvatarStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	as.On("Upload", mock.Anything, "avatars/u1.png", mock.Anything, "image/png").Return(nil)
	as.On("PresignedURL", mock.Anything, "avatars/u1.png", avatarURLTTL).
		Return("https://bucket.test/avatars/u1.png?sig=abc", nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		fieldAvatarKey: "avatars/u1.png",
		fieldAvatarURL: "https://bucket.test/avatars/u1.png?sig=abc",
	}).Return(nil)

	svc := NewService(us, as)
	url, err := svc.SetAvatar(context.Background(), "u1", "me.PNG", strings.NewReader("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.test/avatars/u1.png?sig=abc", url)
	as.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	us.AssertExpectations(t)
	as.AssertExpectations(t)
}

// Uploading with a new extension removes the previous object.
func TestSetAvatar_ReplacementRemovesOldObject(t *testing.T) {
	us := &mockUserStore{}
	as := &mockAvatarStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1.jpg"}, nil)
	as.On("Upload", mock.Anything, "avatars/u1.png", mock.Anything, "image/png").Return(nil)
	as.On("Delete", mock.Anything, "avatars/u1.jpg").Return(nil)
	as.On("PresignedURL", mock.Anything, "avatars/u1.png", avatarURLTTL).
		Return("https://bucket.test/avatars/u1.png?sig=def", nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewService(us, as)
	_, err := svc.SetAvatar(context.Background(), "u1", "new.png", strings.NewReader("png-bytes"))

	require.NoError(t, err)
	as.AssertExpectations(t)
}

func TestDelete_RemovesAvatarObject(t *testing.T) {
	us := &mockUserStore{}
	as := &mockAvatarStore{}
	removed := &domain.User{UserID: "u1", AvatarKey: "avatars/u1.webp"}
	us.On("HardDelete", mock.Anything, "u1").Return(removed, nil)
	as.On("Delete", mock.Anything, "avatars/u1.webp").Return(nil)

	svc := NewService(us, as)
	u, err := svc.Delete(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, removed, u)
	as.AssertExpectations(t)
}

// --- Get tests ---

func TestGet_MintsFreshAvatarURL(t *testing.T) {
	us := &mockUserStore{}
	as := &mockAvatarStore{}
	us.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1.png", AvatarURL: "https://bucket.test/stale"}, nil)
	as.On("PresignedURL", mock.Anything, "avatars/u1.png", avatarURLTTL).
		Return("https://bucket.test/avatars/u1.png?sig=fresh", nil)

	svc := NewService(us, as)
	u, err := svc.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.test/avatars/u1.png?sig=fresh", u.AvatarURL)
	as.AssertExpectations(t)
}

// A presign failure keeps the stored link instead of failing the read.
func TestGet_PresignFailureKeepsStoredURL(t *testing.T) {
	us := &mockUserStore{}
	as := &mockAvatarStore{}
	us.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1.png", AvatarURL: "https://bucket.test/last-known"}, nil)
	as.On("PresignedURL", mock.Anything, "avatars/u1.png", avatarURLTTL).
		Return("", errors.New("presign unavailable"))

	svc := NewService(us, as)
	u, err := svc.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.test/last-known", u.AvatarURL)
}
