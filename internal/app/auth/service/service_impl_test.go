package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/enquestor/dreamer/internal/adapters/transport/http/dto"
	"github.com/enquestor/dreamer/internal/app/auth/jwt"
	appsvc "github.com/enquestor/dreamer/internal/app/auth/service"
	authErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"github.com/enquestor/dreamer/internal/domain/auth/model"
	"github.com/enquestor/dreamer/internal/infra/config"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by username
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[string]model.User{}}
}

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uuid.UUID, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, v := range u.users {
		if v.Username == m.Username || v.Email == m.Email {
			return uuid.Nil, authErrors.ErrAlreadyExists
		}
	}
	u.users[m.Username] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.users[username]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	return v, nil
}

type tokenRepoStub struct {
	mu      sync.Mutex
	records map[string]model.RefreshToken
}

func newTokenRepoStub() *tokenRepoStub {
	return &tokenRepoStub{records: map[string]model.RefreshToken{}}
}

func (t *tokenRepoStub) Store(_ context.Context, rec model.RefreshToken) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[rec.Token] = rec
	return nil
}

func (t *tokenRepoStub) Exists(_ context.Context, token string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[token]
	return ok && rec.ExpiresAt.After(time.Now()), nil
}

func (t *tokenRepoStub) Delete(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[token]; !ok {
		return authErrors.ErrNotFound
	}
	delete(t.records, token)
	return nil
}

func newService(t *testing.T) (appsvc.Service, *userRepoStub, *tokenRepoStub) {
	t.Helper()
	tokenUtil, err := jwt.NewTokenUtil(&config.Config{
		JWTKey:          "service-test-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	ur := newUserRepoStub()
	tr := newTokenRepoStub()
	return appsvc.New(ur, tr, tokenUtil, validator.New()), ur, tr
}

func signupAlice(t *testing.T, svc appsvc.Service) model.TokenPair {
	t.Helper()
	pair, err := svc.Signup(context.Background(), dto.SignupDTO{
		Username: "alice",
		Password: "secret",
		Name:     "Alice",
		Email:    "a@x.com",
	})
	require.NoError(t, err)
	return pair
}

/* ──────────────────────────────── tests ──────────────────────────────── */

func TestSignup_ThenLogin(t *testing.T) {
	svc, _, tr := newService(t)

	pair := signupAlice(t, svc)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	exists, err := tr.Exists(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, exists, "signup must persist the refresh record")

	loginPair, err := svc.Login(context.Background(), dto.LoginDTO{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, loginPair.AccessToken)
	require.NotEqual(t, pair.RefreshToken, loginPair.RefreshToken)
	require.Equal(t, pair.UserID, loginPair.UserID)
}

func TestSignup_MissingFields(t *testing.T) {
	svc, _, tr := newService(t)

	_, err := svc.Signup(context.Background(), dto.SignupDTO{
		Username: "alice",
		Password: "secret",
		// no name, no email
	})
	require.True(t, authErrors.IsInvalidArgument(err))
	require.Empty(t, tr.records, "no tokens may be issued for a malformed request")
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc, _, _ := newService(t)
	signupAlice(t, svc)

	_, err := svc.Signup(context.Background(), dto.SignupDTO{
		Username: "alice",
		Password: "other",
		Name:     "Other",
		Email:    "other@x.com",
	})
	require.True(t, authErrors.IsAlreadyExists(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, tr := newService(t)
	pair := signupAlice(t, svc)

	_, err := svc.Login(context.Background(), dto.LoginDTO{Username: "alice", Password: "wrong"})
	require.True(t, authErrors.IsInvalidCredentials(err))

	// No new refresh record from the failed login.
	require.Len(t, tr.records, 1)
	require.Contains(t, tr.records, pair.RefreshToken)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), dto.LoginDTO{Username: "nobody", Password: "secret"})
	require.True(t, authErrors.IsNotFound(err))
}

func TestRefresh_RotatesAndInvalidatesOld(t *testing.T) {
	svc, _, tr := newService(t)
	pair := signupAlice(t, svc)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.Equal(t, pair.UserID, rotated.UserID)

	exists, err := tr.Exists(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.False(t, exists, "old record must be gone after rotation")

	// Single use: replaying the consumed token must fail.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.True(t, authErrors.IsUnknownToken(err))
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Refresh(context.Background(), "garbage")
	require.True(t, authErrors.IsInvalidToken(err))

	_, err = svc.Refresh(context.Background(), "")
	require.True(t, authErrors.IsInvalidArgument(err))
}

func TestRefresh_SignedButUnpersisted(t *testing.T) {
	svc, _, _ := newService(t)
	pair := signupAlice(t, svc)

	// A token minted outside the signup/login/refresh flow verifies
	// cryptographically but has no record, so rotation must refuse it.
	outside, err := jwt.NewTokenUtil(&config.Config{
		JWTKey:          "service-test-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	forged, _, err := outside.GenerateRefreshToken(pair.UserID)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), forged)
	require.True(t, authErrors.IsUnknownToken(err))
}

func TestLogout_ThenRefreshFails(t *testing.T) {
	svc, _, _ := newService(t)
	pair := signupAlice(t, svc)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.True(t, authErrors.IsUnknownToken(err))
}

func TestLogout_UnknownToken(t *testing.T) {
	svc, _, _ := newService(t)
	pair := signupAlice(t, svc)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	err := svc.Logout(context.Background(), pair.RefreshToken)
	require.True(t, authErrors.IsUnknownToken(err))

	err = svc.Logout(context.Background(), "")
	require.True(t, authErrors.IsInvalidArgument(err))
}

func TestRefresh_ConcurrentSingleUse(t *testing.T) {
	svc, _, _ := newService(t)
	pair := signupAlice(t, svc)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			require.True(t, authErrors.IsUnknownToken(err), "loser must see unknown token, got %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one rotation may win")
}
