// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the read-only queries behind the admin
// listing and statistics endpoints.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/domain"
)

// GameFilter narrows admin game listings. Nil fields mean "no filter".
type GameFilter struct {
	ChatID     *uint
	IsStarted  *bool
	IsFinished *bool
}

func (f GameFilter) apply(q *gorm.DB) *gorm.DB {
	if f.ChatID != nil {
		q = q.Where("chat_id = ?", *f.ChatID)
	}
	if f.IsStarted != nil {
		q = q.Where("is_started = ?", *f.IsStarted)
	}
	if f.IsFinished != nil {
		q = q.Where("is_finished = ?", *f.IsFinished)
	}
	return q
}

// CountGames returns the number of games matching the filter.
func CountGames(ctx context.Context, db *gorm.DB, f GameFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Game{})).Count(&total).Error
	return total, err
}

// ListGamesPage returns a page of games matching the filter, newest first,
// with players preloaded for display.
func ListGamesPage(ctx context.Context, db *gorm.DB, f GameFilter, offset, limit int) ([]domain.Game, error) {
	var out []domain.Game
	err := f.apply(db.WithContext(ctx).Preload("Players")).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountUsers returns the number of known players.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// ListUsersPage returns a page of players, newest first.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountChats returns the number of chats the bot has seen.
func CountChats(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Chat{}).Count(&total).Error
	return total, err
}

// ListChatsPage returns a page of chats, newest first.
func ListChatsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Stats aggregates the headline numbers shown on the admin dashboard.
type Stats struct {
	Chats             int64 `json:"chats"`
	Users             int64 `json:"users"`
	GamesTotal        int64 `json:"games_total"`
	GamesFinished     int64 `json:"games_finished"`
	PlayerWins        int64 `json:"player_wins"`
	BotWins           int64 `json:"bot_wins"`
	QuestionsApproved int64 `json:"questions_approved"`
	QuestionsPending  int64 `json:"questions_pending"`
}

// GameStats computes aggregate counters across chats, users, games, and the
// question bank. Win counts compare finished games' scores against the win
// threshold recorded at play time (the higher score wins; the draw policy
// for an exhausted pool can leave both sides short, counted in neither).
func GameStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	var s Stats
	type count struct {
		dst   *int64
		model any
		where []any
	}
	counts := []count{
		{&s.Chats, &domain.Chat{}, nil},
		{&s.Users, &domain.User{}, nil},
		{&s.GamesTotal, &domain.Game{}, nil},
		{&s.GamesFinished, &domain.Game{}, []any{"is_finished = ?", true}},
		{&s.PlayerWins, &domain.Game{}, []any{"is_finished = ? AND players_score > bot_score", true}},
		{&s.BotWins, &domain.Game{}, []any{"is_finished = ? AND bot_score > players_score", true}},
		{&s.QuestionsApproved, &domain.Question{}, []any{"is_approved = ?", true}},
		{&s.QuestionsPending, &domain.Question{}, []any{"is_approved = ?", false}},
	}
	for _, c := range counts {
		q := db.WithContext(ctx).Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}
