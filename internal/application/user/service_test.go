package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/security"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
)

// fakeUserRepo is an in-memory UserRepository keyed by id and email.
type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.users[u.ID()] = u
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *user.User) error {
	f.users[u.ID()] = u
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email() == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-at-least-32-characters!!",
			JWTExpiration:     15 * time.Minute,
			RefreshExpiration: 24 * time.Hour,
			BCryptCost:        4,
		},
	}
	auth := security.NewAuthService(cfg, zap.NewNop(), client)
	repo := newFakeUserRepo()
	return NewUserService(repo, auth, zap.NewNop()), repo
}

func registerCmd() RegisterCommand {
	return RegisterCommand{
		Email:    "Cook@Example.com",
		Name:     "Pat Cook",
		Password: "hunter2hunter2",
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestRegister(t *testing.T) {
	svc, repo := newTestUserService(t)

	resp, err := svc.Register(context.Background(), registerCmd())

	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", resp.User.Email, "emails are stored lowercased")
	assert.Equal(t, "Pat Cook", resp.User.Name)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	assert.Len(t, repo.users, 1)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), registerCmd())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerCmd())
	assertCode(t, err, apperrors.CodeEmailAlreadyExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _ := newTestUserService(t)

	cmd := registerCmd()
	cmd.Password = "short"

	_, err := svc.Register(context.Background(), cmd)
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestLogin(t *testing.T) {
	svc, repo := newTestUserService(t)

	registered, err := svc.Register(context.Background(), registerCmd())
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginCommand{
		Email:    "cook@example.com",
		Password: "hunter2hunter2",
	})

	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)

	stored := repo.users[resp.User.ID]
	require.NotNil(t, stored.LastLoginAt())
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), registerCmd())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginCommand{
		Email:    "cook@example.com",
		Password: "wrong-password",
	})
	assertCode(t, err, apperrors.CodeInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Login(context.Background(), LoginCommand{
		Email:    "nobody@example.com",
		Password: "hunter2hunter2",
	})
	assertCode(t, err, apperrors.CodeInvalidCredentials)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, repo := newTestUserService(t)

	registered, err := svc.Register(context.Background(), registerCmd())
	require.NoError(t, err)
	repo.users[registered.User.ID].Deactivate()

	_, err = svc.Login(context.Background(), LoginCommand{
		Email:    "cook@example.com",
		Password: "hunter2hunter2",
	})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerCmd())
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	t.Run("old refresh token is single use", func(t *testing.T) {
		_, err := svc.Refresh(ctx, registered.RefreshToken)
		assertCode(t, err, apperrors.CodeUnauthorized)
	})
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerCmd())
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, registered.AccessToken)
	assertCode(t, err, apperrors.CodeUnauthorized)
}

func TestGetUserByID(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerCmd())
	require.NoError(t, err)

	dto, err := svc.GetUserByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", dto.Email)

	_, err = svc.GetUserByID(ctx, uuid.New())
	assertCode(t, err, apperrors.CodeUserNotFound)
}

func TestUpdatePreferences(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerCmd())
	require.NoError(t, err)

	prefs := &user.Preferences{
		DietaryLabels:       []string{"vegan"},
		DislikedIngredients: []string{"cilantro"},
		PreferredCuisines:   []string{"thai"},
	}
	require.NoError(t, svc.UpdatePreferences(ctx, registered.User.ID, prefs))

	stored := repo.users[registered.User.ID]
	assert.True(t, stored.HasDietaryLabel("vegan"))
	assert.Equal(t, []string{"cilantro"}, stored.Preferences().DislikedIngredients)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerCmd())
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, registered.User.ID, "nope", "a-new-password")
		assertCode(t, err, apperrors.CodeUnauthorized)
	})

	require.NoError(t, svc.ChangePassword(ctx, registered.User.ID, "hunter2hunter2", "a-new-password"))

	_, err = svc.Login(ctx, LoginCommand{Email: "cook@example.com", Password: "a-new-password"})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, LoginCommand{Email: "cook@example.com", Password: "hunter2hunter2"})
	assertCode(t, err, apperrors.CodeInvalidCredentials)
}
