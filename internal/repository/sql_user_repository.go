package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"msgboard/internal/model"
)

// mysqlDuplicateEntry is MySQL error 1062, returned when TranslateError is off.
const mysqlDuplicateEntry = 1062

type SQLUserRepository struct {
	db *gorm.DB
}

func NewSQLUserRepository(db *gorm.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

func (r *SQLUserRepository) Create(ctx context.Context, user *model.User) error {
	record := userRecord{
		ID:         uuid.NewString(),
		Username:   user.Username,
		Password:   user.PasswordHash,
		DateJoined: user.DateJoined,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	user.ID = record.ID
	return nil
}

func (r *SQLUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	record, err := r.first(r.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}
	user := record.toModel()
	return &user, nil
}

func (r *SQLUserRepository) DeleteByUsername(ctx context.Context, username string) (*model.User, error) {
	var deleted userRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := r.first(tx, username)
		if err != nil {
			return err
		}
		if err := tx.Delete(&userRecord{}, "id = ?", record.ID).Error; err != nil {
			return fmt.Errorf("delete user failed: %w", err)
		}
		deleted = *record
		return nil
	})
	if err != nil {
		return nil, err
	}
	user := deleted.toModel()
	return &user, nil
}

func (r *SQLUserRepository) Update(ctx context.Context, username string, changes UserChanges) (*model.User, error) {
	var updated userRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !changes.empty() {
			columns := map[string]any{}
			if changes.PasswordHash != nil {
				columns["password"] = *changes.PasswordHash
			}
			if err := tx.Model(&userRecord{}).Where("username = ?", username).Updates(columns).Error; err != nil {
				return fmt.Errorf("update user failed: %w", err)
			}
		}
		record, err := r.first(tx, username)
		if err != nil {
			return err
		}
		updated = *record
		return nil
	})
	if err != nil {
		return nil, err
	}
	user := updated.toModel()
	return &user, nil
}

func (r *SQLUserRepository) first(db *gorm.DB, username string) (*userRecord, error) {
	var record userRecord
	if err := db.Where("username = ?", username).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &record, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
