// Package services – GameQueryService
//
// Read-only views for the admin surface: paginated game listings with
// filters, player and chat directories, and the aggregate dashboard
// statistics. All writes to these entities flow through the engine; this
// service never mutates state.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/domain"
	"github.com/quizhub/go-trivia-bot/internal/repo"
)

// GameQueryRepo defines the repository contract required by
// GameQueryService.
type GameQueryRepo interface {
	CountGames(ctx context.Context, db *gorm.DB, f repo.GameFilter) (int64, error)
	ListGamesPage(ctx context.Context, db *gorm.DB, f repo.GameFilter, offset, limit int) ([]domain.Game, error)
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)
	ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)
	CountChats(ctx context.Context, db *gorm.DB) (int64, error)
	ListChatsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Chat, error)
	GameStats(ctx context.Context, db *gorm.DB) (*repo.Stats, error)
}

// GameQueryService provides the admin read model for games.
type GameQueryService struct {
	// DB is the GORM handle used for all queries.
	DB *gorm.DB
	// Repo is the game query repository used by this service.
	Repo GameQueryRepo
}

// ListPage returns a page of games matching the filter, newest first, along
// with the total count. It applies defaults for invalid page/pageSize.
func (s *GameQueryService) ListPage(ctx context.Context, f repo.GameFilter, page, pageSize int) ([]domain.Game, int64, error) {
	pageSize, offset := normalizePage(page, pageSize)

	total, err := s.Repo.CountGames(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Game{}, 0, nil
	}

	items, err := s.Repo.ListGamesPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// ListUsers returns a page of known players, newest first, along with the
// total count.
func (s *GameQueryService) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	pageSize, offset := normalizePage(page, pageSize)

	total, err := s.Repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := s.Repo.ListUsersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// ListChats returns a page of chats the bot has joined, newest first, along
// with the total count.
func (s *GameQueryService) ListChats(ctx context.Context, page, pageSize int) ([]domain.Chat, int64, error) {
	pageSize, offset := normalizePage(page, pageSize)

	total, err := s.Repo.CountChats(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := s.Repo.ListChatsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Stats returns the aggregate dashboard counters.
func (s *GameQueryService) Stats(ctx context.Context) (*repo.Stats, error) {
	return s.Repo.GameStats(ctx, s.DB)
}

// normalizePage applies the listing defaults and derives the offset.
func normalizePage(page, pageSize int) (size, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
