package app

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"msgboard/internal/model"
	"msgboard/internal/repository"
)

var errDatabase = errors.New("database error")

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(repository.SQLModels()...))
	return db
}

func newSQLUserService(t *testing.T) *UserService {
	t.Helper()
	log, _ := test.NewNullLogger()
	return NewUserService(repository.NewSQLUserRepository(openTestDB(t)), bcrypt.MinCost, log)
}

// mockUserRepository is a function-field implementation of UserRepository.
type mockUserRepository struct {
	CreateFunc           func(ctx context.Context, user *model.User) error
	GetByUsernameFunc    func(ctx context.Context, username string) (*model.User, error)
	DeleteByUsernameFunc func(ctx context.Context, username string) (*model.User, error)
	UpdateFunc           func(ctx context.Context, username string, changes repository.UserChanges) (*model.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) DeleteByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.DeleteByUsernameFunc != nil {
		return m.DeleteByUsernameFunc(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, username string, changes repository.UserChanges) (*model.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, username, changes)
	}
	return nil, repository.ErrNotFound
}

type mockMessageRepository struct {
	CreateFunc  func(ctx context.Context, message *model.Message) error
	ListAllFunc func(ctx context.Context) ([]model.Message, error)
}

func (m *mockMessageRepository) Create(ctx context.Context, message *model.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, message)
	}
	message.ID = "generated-id"
	return nil
}

func (m *mockMessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return nil, nil
}
