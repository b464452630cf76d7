// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the game persistence gateway consumed
// by the state-machine engine.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no game rules, only atomic reads
// and writes keyed by chat and game identity.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Concurrency: each mutation is a single-aggregate write guarded by the
// game's finished flag where relevant, so a transition can never resurrect
// a finished game. Callers (the per-chat processor) guarantee that at most
// one transition per chat is in flight at a time.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quizhub/go-trivia-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the engine,
// services, and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ResolveChat returns the chat with the given external VK id, creating it
// on first sight. Creation is idempotent: a concurrent insert racing on the
// unique vk_id index is absorbed by the conflict clause.
func ResolveChat(ctx context.Context, db *gorm.DB, vkID int64) (*domain.Chat, error) {
	c := &domain.Chat{VKID: vkID, CreatedAt: time.Now().UTC()}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "vk_id"}}, DoNothing: true}).
		Create(c).Error
	if err != nil {
		return nil, err
	}
	// Re-read so the caller always observes the persisted row (the insert
	// may have been a no-op against an existing chat).
	var out domain.Chat
	if err := db.WithContext(ctx).Where("vk_id = ?", vkID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveUser returns the user with the given external VK id, creating it
// lazily on first interaction. Same upsert semantics as ResolveChat.
func ResolveUser(ctx context.Context, db *gorm.DB, vkID int64) (*domain.User, error) {
	u := &domain.User{VKID: vkID, CreatedAt: time.Now().UTC()}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "vk_id"}}, DoNothing: true}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	var out domain.User
	if err := db.WithContext(ctx).Where("vk_id = ?", vkID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActiveGame fetches the unique unfinished game for a chat, preloading
// players, the asked-question set, and the current question with its
// acceptable answers. It returns ErrNotFound when the chat has no game in
// progress or awaiting players.
func GetActiveGame(ctx context.Context, db *gorm.DB, chatID uint) (*domain.Game, error) {
	var g domain.Game
	err := db.WithContext(ctx).
		Preload("Players").
		Preload("AskedQuestions").
		Where("chat_id = ? AND is_finished = ?", chatID, false).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGame inserts a fresh game for the chat: no players, not started,
// zero scores. The caller must have verified that no unfinished game exists;
// per-chat serialization makes that check race-free.
func CreateGame(ctx context.Context, db *gorm.DB, chatID uint) (*domain.Game, error) {
	g := &domain.Game{ChatID: chatID, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// AddPlayer adds the user to the game's player set. It reports false when
// the user is already a member, making repeated joins a no-op.
func AddPlayer(ctx context.Context, db *gorm.DB, gameID, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Table("game_players").
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	err = db.WithContext(ctx).Exec(
		"INSERT INTO game_players (game_id, user_id) VALUES (?, ?)", gameID, userID,
	).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// StartGame flips is_started on an unfinished game. Returns ErrNotFound when
// the game is missing, already started, or already finished.
func StartGame(ctx context.Context, db *gorm.DB, gameID uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Game{}).
		Where("id = ? AND is_started = ? AND is_finished = ?", gameID, false, false).
		Update("is_started", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCaptain records the captain for an unfinished game.
func SetCaptain(ctx context.Context, db *gorm.DB, gameID, userID uint) error {
	return updateUnfinished(ctx, db, gameID, map[string]any{"captain_id": userID})
}

// SetRespondent records which player is authorized to answer the current
// question of an unfinished game.
func SetRespondent(ctx context.Context, db *gorm.DB, gameID, userID uint) error {
	return updateUnfinished(ctx, db, gameID, map[string]any{"respondent_id": userID})
}

// RecordQuestionAsked marks a question as drawn for the game: it appends the
// question to the asked set and updates the current question pointer and the
// authoritative start of the answer window in one transaction.
func RecordQuestionAsked(ctx context.Context, db *gorm.DB, gameID, questionID uint, at time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			"INSERT INTO game_questions (game_id, question_id) VALUES (?, ?)", gameID, questionID,
		).Error
		if err != nil {
			return err
		}
		res := tx.Model(&domain.Game{}).
			Where("id = ? AND is_finished = ?", gameID, false).
			Updates(map[string]any{
				"current_question_id": questionID,
				"question_asked_at":   at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ApplyScore increments exactly one side's score on an unfinished game and
// returns the updated row. playersSide selects which counter grows. The
// finished-flag guard means a late write against a finished game affects
// zero rows and surfaces as ErrNotFound instead of corrupting the result.
func ApplyScore(ctx context.Context, db *gorm.DB, gameID uint, playersSide bool) (*domain.Game, error) {
	col := "bot_score"
	if playersSide {
		col = "players_score"
	}
	res := db.WithContext(ctx).
		Model(&domain.Game{}).
		Where("id = ? AND is_finished = ?", gameID, false).
		UpdateColumn(col, gorm.Expr(col+" + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var g domain.Game
	if err := db.WithContext(ctx).First(&g, gameID).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// FinishGame marks the game finished and clears the respondent slot so no
// further answers can be scored. Finished is absorbing: repeated calls
// return ErrNotFound.
func FinishGame(ctx context.Context, db *gorm.DB, gameID uint) error {
	return updateUnfinished(ctx, db, gameID, map[string]any{
		"is_finished":   true,
		"respondent_id": nil,
	})
}

// ApprovedQuestionIDs lists the ids of approved questions excluding those
// already asked this game. The engine draws from this pool with its injected
// randomness source, keeping selection deterministic under test.
func ApprovedQuestionIDs(ctx context.Context, db *gorm.DB, exclude []uint) ([]uint, error) {
	var ids []uint
	q := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("is_approved = ?", true)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	err := q.Order("id").Pluck("id", &ids).Error
	return ids, err
}

// updateUnfinished applies column updates to a game only while it is not
// finished, translating "zero rows touched" into ErrNotFound.
func updateUnfinished(ctx context.Context, db *gorm.DB, gameID uint, cols map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Game{}).
		Where("id = ? AND is_finished = ?", gameID, false).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
