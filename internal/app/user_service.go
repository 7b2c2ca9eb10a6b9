package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"msgboard/internal/model"
	"msgboard/internal/repository"
)

const (
	msgUsernameRequired   = "Username is required"
	msgUserNotFound       = "User not found"
	msgEmptyCredentials   = "Username and password cannot be empty"
	msgUsernameExists     = "Username already exists"
	msgInvalidCredentials = "Invalid username or password"
)

// dummyHash keeps Authenticate's timing flat when the username does not exist.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	DeleteByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, username string, changes repository.UserChanges) (*model.User, error)
}

type UserService struct {
	repo       UserRepository
	bcryptCost int
	log        logrus.FieldLogger
	now        func() time.Time
}

type NewUser struct {
	Username   string
	Password   string
	DateJoined time.Time
}

type Credentials struct {
	Username string
	Password string
}

// UserUpdate carries the fields a caller may change. Only the password is mutable.
type UserUpdate struct {
	Password *string
}

func NewUserService(repo UserRepository, bcryptCost int, log logrus.FieldLogger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
		log:        log.WithField("component", "user_service"),
		now:        time.Now,
	}
}

func (s *UserService) Create(ctx context.Context, input NewUser) (model.SafeUser, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || strings.TrimSpace(input.Password) == "" {
		return model.SafeUser{}, newError(KindInvalidInput, msgEmptyCredentials, nil)
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return model.SafeUser{}, newError(KindStorage, "Error saving user", err)
	}

	dateJoined := input.DateJoined
	if dateJoined.IsZero() {
		dateJoined = s.now()
	}
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		DateJoined:   dateJoined.UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		switch {
		case unexpected(err):
			return model.SafeUser{}, err
		case errors.Is(err, repository.ErrDuplicateKey):
			return model.SafeUser{}, newError(KindDuplicateUsername, msgUsernameExists, err)
		default:
			s.log.WithError(err).WithField("username", username).Error("save user failed")
			return model.SafeUser{}, newError(KindStorage, "Error saving user", err)
		}
	}
	return user.Safe(), nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (model.SafeUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.SafeUser{}, newError(KindInvalidInput, msgUsernameRequired, nil)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return model.SafeUser{}, s.lookupError(err, "Error fetching user data", username)
	}
	return user.Safe(), nil
}

func (s *UserService) Authenticate(ctx context.Context, credentials Credentials) (model.SafeUser, error) {
	username := strings.TrimSpace(credentials.Username)
	if username == "" || credentials.Password == "" {
		return model.SafeUser{}, newError(KindInvalidCredentials, msgInvalidCredentials, nil)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		if unexpected(err) {
			return model.SafeUser{}, err
		}
		s.log.WithError(err).WithField("username", username).Error("login lookup failed")
		return model.SafeUser{}, newError(KindStorage, "Error logging in user", err)
	}

	passwordHash := dummyHash
	if user != nil {
		passwordHash = user.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(credentials.Password))
	if user == nil || compareErr != nil {
		return model.SafeUser{}, newError(KindInvalidCredentials, msgInvalidCredentials, compareErr)
	}
	return user.Safe(), nil
}

func (s *UserService) DeleteByUsername(ctx context.Context, username string) (model.SafeUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.SafeUser{}, newError(KindInvalidInput, msgUsernameRequired, nil)
	}

	user, err := s.repo.DeleteByUsername(ctx, username)
	if err != nil {
		return model.SafeUser{}, s.lookupError(err, "Error deleting user", username)
	}
	return user.Safe(), nil
}

func (s *UserService) Update(ctx context.Context, username string, update UserUpdate) (model.SafeUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.SafeUser{}, newError(KindInvalidInput, msgUsernameRequired, nil)
	}

	var changes repository.UserChanges
	if update.Password != nil {
		if strings.TrimSpace(*update.Password) == "" {
			return model.SafeUser{}, newError(KindInvalidInput, "Password cannot be empty", nil)
		}
		hash, err := s.hash(*update.Password)
		if err != nil {
			return model.SafeUser{}, newError(KindStorage, "Error updating user", err)
		}
		changes.PasswordHash = &hash
	}

	user, err := s.repo.Update(ctx, username, changes)
	if err != nil {
		return model.SafeUser{}, s.lookupError(err, "Error updating user", username)
	}
	return user.Safe(), nil
}

func (s *UserService) lookupError(err error, storageMessage, username string) error {
	switch {
	case unexpected(err):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindNotFound, msgUserNotFound, err)
	default:
		s.log.WithError(err).WithField("username", username).Error(storageMessage)
		return newError(KindStorage, storageMessage, err)
	}
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}
