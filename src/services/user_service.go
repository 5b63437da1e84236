package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/processors"
	"github.com/username/fundfolio/backend/src/security/validation"
	"github.com/username/fundfolio/backend/src/store"
)

type userServiceImpl struct {
	store store.Store
	now   func() time.Time
}

func NewUserService(st store.Store) UserService {
	return &userServiceImpl{store: st, now: time.Now}
}

func (s *userServiceImpl) Register(ctx context.Context, name, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.findByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	id := uuid.NewString()
	fields := map[string]any{
		"name":              validation.CleanLabel(name),
		"email":             email,
		"role":              models.RoleUser,
		"passwordHash":      string(hash),
		"balanceAdjustment": "0",
		"createdAt":         s.now().UnixMilli(),
	}
	if err := s.store.PutDocument(ctx, store.UsersPath(), id, fields); err != nil {
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	logger.FromContext(ctx).Info("User registered", "userID", id)
	return processors.ClassifyUser(models.RawEvent{ID: id, Fields: fields}), nil
}

func (s *userServiceImpl) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.findByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, userID string) (models.User, error) {
	ev, err := s.store.GetDocument(ctx, store.UsersPath(), userID)
	if err != nil {
		return models.User{}, err
	}
	return processors.ClassifyUser(ev), nil
}

// findByEmail scans the user directory. The directory is a document
// collection without secondary indexes, so a scan is the lookup.
func (s *userServiceImpl) findByEmail(ctx context.Context, email string) (models.User, error) {
	events, err := s.store.GetCollection(ctx, store.UsersPath())
	if err != nil {
		return models.User{}, fmt.Errorf("reading user directory: %w", err)
	}
	for _, ev := range events {
		user := processors.ClassifyUser(ev)
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, fmt.Errorf("user with email %s: %w", email, store.ErrNotFound)
}
