package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
)

type UserResolver interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// userResolver resolves the user from the request context, falling back to the
// configured default user for unattended work such as scheduled syncs. Users are
// created on first sight and cached afterwards.
type userResolver struct {
	repo          domain.UserRepository
	defaultUserID string
	logger        *logger.Logger
	now           func() time.Time

	mu    sync.Mutex
	cache map[string]domain.User
}

func NewUserResolver(repo domain.UserRepository, defaultUserID string, log *logger.Logger) UserResolver {
	return &userResolver{
		repo:          repo,
		defaultUserID: defaultUserID,
		logger:        log,
		now:           time.Now,
		cache:         make(map[string]domain.User),
	}
}

func (r *userResolver) CurrentUser(ctx context.Context) (*domain.User, error) {
	userID := logger.GetUserID(ctx)
	if userID == "" {
		userID = r.defaultUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.cache[userID]; ok {
		return &user, nil
	}

	user, err := r.repo.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{ID: userID, CreatedAt: r.now()}
		if err := r.repo.SaveUser(ctx, user); err != nil {
			r.logger.Error(ctx, "Failed to create user",
				"user_id", userID,
				"error", err,
			)
			return nil, err
		}
		r.logger.Info(ctx, "User created", "user_id", userID)
	} else if err != nil {
		r.logger.Error(ctx, "Failed to load user",
			"user_id", userID,
			"error", err,
		)
		return nil, err
	}

	r.cache[userID] = *user

	return user, nil
}
