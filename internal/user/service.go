// Package user is the user directory: profiles plus the listings each user sells or watches.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/domain"
	apperrors "github.com/Proton-105/queue-bot/internal/errors"
	"github.com/Proton-105/queue-bot/internal/repository"
)

// ProfileCache is the optional read-through cache in front of the repository.
type ProfileCache interface {
	Get(ctx context.Context, userID int64) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, userID int64) error
}

// Service provides business operations over users.
type Service struct {
	repo  repository.UserRepository
	cache ProfileCache
	log   *slog.Logger
	now   func() time.Time
}

// NewService constructs a new Service instance. cache may be nil.
func NewService(repo repository.UserRepository, cache ProfileCache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, cache: cache, log: log, now: time.Now}
}

// GetOrCreate fetches a user by Telegram id or creates the profile when missing.
func (s *Service) GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error) {
	if telegramUser == nil {
		return nil, errors.New("telegram user is nil")
	}

	if cached := s.cached(ctx, telegramUser.ID); cached != nil {
		return cached, nil
	}

	user, err := s.repo.FindByID(ctx, telegramUser.ID)
	if err == nil {
		s.remember(ctx, user)
		return user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		s.logError(ctx, "get_or_create.find", telegramUser.ID, err)
		return nil, apperrors.NewDatabaseError("find user", err)
	}

	now := s.now().UTC()
	newUser := &domain.User{
		ID:           telegramUser.ID,
		FirstName:    telegramUser.FirstName,
		LastName:     telegramUser.LastName,
		Username:     telegramUser.Username,
		LastActiveAt: now,
		CreatedAt:    now,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logError(ctx, "get_or_create.create", telegramUser.ID, err)
		return nil, apperrors.NewDatabaseError("create user", err)
	}
	s.remember(ctx, newUser)

	return newUser, nil
}

// UpdateLastActive refreshes the last_active_at field for the user.
func (s *Service) UpdateLastActive(ctx context.Context, userID int64) error {
	if err := s.repo.UpdateLastActiveAt(ctx, userID); err != nil {
		s.logError(ctx, "update_last_active", userID, err)
		return apperrors.NewDatabaseError("update last active", err)
	}

	return nil
}

// Add puts listingID into the user's selling or watching set.
func (s *Service) Add(ctx context.Context, userID int64, listingID string, role domain.Role) error {
	if err := s.repo.AddListing(ctx, userID, listingID, role); err != nil {
		s.logError(ctx, "add_"+string(role), userID, err)
		return apperrors.NewDatabaseError("add user listing", err)
	}
	return nil
}

// Remove takes listingID out of the user's set.
func (s *Service) Remove(ctx context.Context, userID int64, listingID string, role domain.Role) error {
	if err := s.repo.RemoveListing(ctx, userID, listingID, role); err != nil {
		s.logError(ctx, "remove_"+string(role), userID, err)
		return apperrors.NewDatabaseError("remove user listing", err)
	}
	return nil
}

// ForgetListing removes a deleted listing from every user's sets.
func (s *Service) ForgetListing(ctx context.Context, listingID string) error {
	if err := s.repo.DeleteListing(ctx, listingID); err != nil {
		s.log.ErrorContext(ctx, "user service operation failed",
			slog.String("operation", "forget_listing"),
			slog.String("listing_id", listingID),
			slog.Any("error", err),
		)
		return apperrors.NewDatabaseError("forget listing", err)
	}
	return nil
}

// Listings returns the ids in the user's set for role.
func (s *Service) Listings(ctx context.Context, userID int64, role domain.Role) ([]string, error) {
	ids, err := s.repo.ListListings(ctx, userID, role)
	if err != nil {
		s.logError(ctx, "list_"+string(role), userID, err)
		return nil, apperrors.NewDatabaseError("list user listings", err)
	}
	return ids, nil
}

// DisplayName resolves a user id to a name for waitlist summaries. Unknown users
// are shown by id.
func (s *Service) DisplayName(ctx context.Context, userID int64) string {
	if cached := s.cached(ctx, userID); cached != nil {
		return nameOrID(cached)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logError(ctx, "display_name", userID, err)
		}
		return strconv.FormatInt(userID, 10)
	}
	s.remember(ctx, user)
	return nameOrID(user)
}

func nameOrID(u *domain.User) string {
	if name := u.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprint(u.ID)
}

func (s *Service) cached(ctx context.Context, userID int64) *domain.User {
	if s.cache == nil {
		return nil
	}
	user, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "user cache read failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil
	}
	return user
}

func (s *Service) remember(ctx context.Context, user *domain.User) {
	if s.cache == nil || user == nil {
		return
	}
	if err := s.cache.Set(ctx, user); err != nil {
		s.log.WarnContext(ctx, "user cache write failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}

func (s *Service) logError(ctx context.Context, operation string, userID int64, err error) {
	s.log.ErrorContext(ctx, "user service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}
