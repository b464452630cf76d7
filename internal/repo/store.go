// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file adapts the repository free functions to the
// game.Store interface the engine drives, binding them to one DB handle and
// translating not-found sentinels into the engine's contract.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/domain"
	"github.com/quizhub/go-trivia-bot/internal/game"
)

// GameStore implements game.Store on top of the repository functions.
type GameStore struct {
	DB *gorm.DB
}

// NewGameStore binds a GameStore to the given DB handle.
func NewGameStore(db *gorm.DB) *GameStore { return &GameStore{DB: db} }

// ResolveChat proxies ResolveChat.
func (s *GameStore) ResolveChat(ctx context.Context, vkChatID int64) (*domain.Chat, error) {
	return ResolveChat(ctx, s.DB, vkChatID)
}

// ResolveUser proxies ResolveUser.
func (s *GameStore) ResolveUser(ctx context.Context, vkUserID int64) (*domain.User, error) {
	return ResolveUser(ctx, s.DB, vkUserID)
}

// ActiveGame proxies GetActiveGame, mapping ErrNotFound to
// game.ErrNoActiveGame per the engine's contract.
func (s *GameStore) ActiveGame(ctx context.Context, chatID uint) (*domain.Game, error) {
	g, err := GetActiveGame(ctx, s.DB, chatID)
	if errors.Is(err, ErrNotFound) {
		return nil, game.ErrNoActiveGame
	}
	return g, err
}

// CreateGame proxies CreateGame.
func (s *GameStore) CreateGame(ctx context.Context, chatID uint) (*domain.Game, error) {
	return CreateGame(ctx, s.DB, chatID)
}

// AddPlayer proxies AddPlayer.
func (s *GameStore) AddPlayer(ctx context.Context, gameID, userID uint) (bool, error) {
	return AddPlayer(ctx, s.DB, gameID, userID)
}

// StartGame proxies StartGame.
func (s *GameStore) StartGame(ctx context.Context, gameID uint) error {
	return StartGame(ctx, s.DB, gameID)
}

// SetCaptain proxies SetCaptain.
func (s *GameStore) SetCaptain(ctx context.Context, gameID, userID uint) error {
	return SetCaptain(ctx, s.DB, gameID, userID)
}

// SetRespondent proxies SetRespondent.
func (s *GameStore) SetRespondent(ctx context.Context, gameID, userID uint) error {
	return SetRespondent(ctx, s.DB, gameID, userID)
}

// RecordQuestionAsked proxies RecordQuestionAsked.
func (s *GameStore) RecordQuestionAsked(ctx context.Context, gameID, questionID uint, at time.Time) error {
	return RecordQuestionAsked(ctx, s.DB, gameID, questionID, at)
}

// ApplyScore proxies ApplyScore.
func (s *GameStore) ApplyScore(ctx context.Context, gameID uint, playersSide bool) (*domain.Game, error) {
	return ApplyScore(ctx, s.DB, gameID, playersSide)
}

// FinishGame proxies FinishGame.
func (s *GameStore) FinishGame(ctx context.Context, gameID uint) error {
	return FinishGame(ctx, s.DB, gameID)
}

// ApprovedQuestionIDs proxies ApprovedQuestionIDs.
func (s *GameStore) ApprovedQuestionIDs(ctx context.Context, exclude []uint) ([]uint, error) {
	return ApprovedQuestionIDs(ctx, s.DB, exclude)
}

// Question proxies GetQuestion.
func (s *GameStore) Question(ctx context.Context, id uint) (*domain.Question, error) {
	return GetQuestion(ctx, s.DB, id)
}
