package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"msgboard/internal/model"
	"msgboard/internal/repository"
)

func TestUserService_Create(t *testing.T) {
	t.Run("returns the safe projection", func(t *testing.T) {
		svc := newSQLUserService(t)
		joined := time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC)

		user, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1", DateJoined: joined})

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, joined.Equal(user.DateJoined))

		body, err := json.Marshal(user)
		require.NoError(t, err)
		assert.NotContains(t, string(body), "password")
	})

	t.Run("stores a bcrypt hash instead of the password", func(t *testing.T) {
		var stored *model.User
		log, _ := test.NewNullLogger()
		svc := NewUserService(&mockUserRepository{
			CreateFunc: func(_ context.Context, user *model.User) error {
				stored = user
				return nil
			},
		}, bcrypt.MinCost, log)

		_, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.NotEqual(t, "pw1", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))
		assert.False(t, stored.DateJoined.IsZero(), "join date defaults to now")
	})

	t.Run("join date is kept to millisecond precision", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		svc := NewUserService(&mockUserRepository{}, bcrypt.MinCost, log)
		svc.now = func() time.Time { return time.Date(2024, 6, 4, 12, 0, 0, 987654321, time.UTC) }

		user, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 4, 12, 0, 0, 987000000, time.UTC), user.DateJoined)
	})

	t.Run("duplicate username is reported distinctly", func(t *testing.T) {
		svc := newSQLUserService(t)
		_, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw2"})

		assert.True(t, IsKind(err, KindDuplicateUsername))
		assert.EqualError(t, err, "Username already exists")
	})

	t.Run("blank fields are rejected before storage", func(t *testing.T) {
		called := false
		log, _ := test.NewNullLogger()
		svc := NewUserService(&mockUserRepository{
			CreateFunc: func(context.Context, *model.User) error {
				called = true
				return nil
			},
		}, bcrypt.MinCost, log)

		for _, input := range []NewUser{
			{Username: "   ", Password: "pw"},
			{Username: "alice", Password: "   "},
			{},
		} {
			_, err := svc.Create(context.Background(), input)
			assert.True(t, IsKind(err, KindInvalidInput))
			assert.EqualError(t, err, "Username and password cannot be empty")
		}
		assert.False(t, called)
	})

	t.Run("storage failure", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		svc := NewUserService(&mockUserRepository{
			CreateFunc: func(context.Context, *model.User) error { return errDatabase },
		}, bcrypt.MinCost, log)

		_, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})

		assert.True(t, IsKind(err, KindStorage))
		assert.EqualError(t, err, "Error saving user")
		assert.ErrorIs(t, err, errDatabase)
	})

	t.Run("cancelled context is not tagged", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		svc := NewUserService(&mockUserRepository{
			CreateFunc: func(ctx context.Context, _ *model.User) error { return ctx.Err() },
		}, bcrypt.MinCost, log)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Create(ctx, NewUser{Username: "alice", Password: "pw1"})

		_, tagged := AsError(err)
		assert.False(t, tagged)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUserService_FindByUsername(t *testing.T) {
	svc := newSQLUserService(t)
	_, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	t.Run("returns the matching user", func(t *testing.T) {
		user, err := svc.FindByUsername(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("user not found", func(t *testing.T) {
		_, err := svc.FindByUsername(context.Background(), "nonexistent")

		assert.True(t, IsKind(err, KindNotFound))
		assert.EqualError(t, err, "User not found")
	})

	t.Run("blank username", func(t *testing.T) {
		for _, name := range []string{"", "   "} {
			_, err := svc.FindByUsername(context.Background(), name)
			assert.True(t, IsKind(err, KindInvalidInput))
			assert.EqualError(t, err, "Username is required")
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		failing := NewUserService(&mockUserRepository{
			GetByUsernameFunc: func(context.Context, string) (*model.User, error) { return nil, errDatabase },
		}, bcrypt.MinCost, log)

		_, err := failing.FindByUsername(context.Background(), "alice")

		assert.True(t, IsKind(err, KindStorage))
		assert.EqualError(t, err, "Error fetching user data")
	})
}

func TestUserService_Authenticate(t *testing.T) {
	svc := newSQLUserService(t)
	_, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	tests := []struct {
		name        string
		credentials Credentials
		wantErr     bool
	}{
		{name: "exact match", credentials: Credentials{Username: "alice", Password: "pw1"}},
		{name: "username is trimmed", credentials: Credentials{Username: "  alice ", Password: "pw1"}},
		{name: "wrong password", credentials: Credentials{Username: "alice", Password: "pw2"}, wantErr: true},
		{name: "password is not trimmed", credentials: Credentials{Username: "alice", Password: " pw1"}, wantErr: true},
		{name: "unknown user", credentials: Credentials{Username: "bob", Password: "pw1"}, wantErr: true},
		{name: "empty password", credentials: Credentials{Username: "alice"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(context.Background(), tt.credentials)
			if tt.wantErr {
				assert.True(t, IsKind(err, KindInvalidCredentials))
				assert.EqualError(t, err, "Invalid username or password")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		failing := NewUserService(&mockUserRepository{
			GetByUsernameFunc: func(context.Context, string) (*model.User, error) { return nil, errDatabase },
		}, bcrypt.MinCost, log)

		_, err := failing.Authenticate(context.Background(), Credentials{Username: "alice", Password: "pw1"})

		assert.True(t, IsKind(err, KindStorage))
	})
}

func TestUserService_DeleteByUsername(t *testing.T) {
	svc := newSQLUserService(t)
	_, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	deleted, err := svc.DeleteByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", deleted.Username)

	_, err = svc.DeleteByUsername(context.Background(), "alice")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = svc.DeleteByUsername(context.Background(), " ")
	assert.True(t, IsKind(err, KindInvalidInput))
}

func TestUserService_Update(t *testing.T) {
	t.Run("password reset invalidates the old password", func(t *testing.T) {
		svc := newSQLUserService(t)
		created, err := svc.Create(context.Background(), NewUser{Username: "alice", Password: "old"})
		require.NoError(t, err)

		newPassword := "new"
		updated, err := svc.Update(context.Background(), "alice", UserUpdate{Password: &newPassword})

		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, created.DateJoined.Equal(updated.DateJoined))

		_, err = svc.Authenticate(context.Background(), Credentials{Username: "alice", Password: "old"})
		assert.True(t, IsKind(err, KindInvalidCredentials))
		_, err = svc.Authenticate(context.Background(), Credentials{Username: "alice", Password: "new"})
		assert.NoError(t, err)
	})

	t.Run("user not found", func(t *testing.T) {
		svc := newSQLUserService(t)
		newPassword := "new"

		_, err := svc.Update(context.Background(), "nobody", UserUpdate{Password: &newPassword})

		assert.True(t, IsKind(err, KindNotFound))
		assert.EqualError(t, err, "User not found")
	})

	t.Run("blank username", func(t *testing.T) {
		svc := newSQLUserService(t)

		_, err := svc.Update(context.Background(), "  ", UserUpdate{})

		assert.True(t, IsKind(err, KindInvalidInput))
		assert.EqualError(t, err, "Username is required")
	})

	t.Run("hashes the new password before storage", func(t *testing.T) {
		var got repository.UserChanges
		log, _ := test.NewNullLogger()
		svc := NewUserService(&mockUserRepository{
			UpdateFunc: func(_ context.Context, username string, changes repository.UserChanges) (*model.User, error) {
				got = changes
				return &model.User{ID: "1", Username: username}, nil
			},
		}, bcrypt.MinCost, log)
		newPassword := "new"

		_, err := svc.Update(context.Background(), "alice", UserUpdate{Password: &newPassword})

		require.NoError(t, err)
		require.NotNil(t, got.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*got.PasswordHash), []byte("new")))
	})
}
