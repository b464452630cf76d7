// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Question
// model and its acceptable answers, used by the admin CRUD surface and the
// engine's question lookups.
//
// Functions:
//
//   - CreateQuestion(ctx, db, title, desc, answers, authorID, approved) -> *domain.Question, error
//     Inserts a question together with its ordered answers.
//
//   - GetQuestion(ctx, db, id) -> *domain.Question, error
//     Fetches one question with answers preloaded, or ErrNotFound.
//
//   - GetQuestionByTitle(ctx, db, title) -> *domain.Question, error
//     Exact-title lookup backing the duplicate-submission guard.
//
//   - CountQuestions / ListQuestionsPage
//     Paginated listing with an optional approved filter for moderation.
//
//   - ApproveQuestion(ctx, db, id) -> error
//     Flips the approval gate; only approved questions enter the draw pool.
//
//   - DeleteQuestion(ctx, db, id) -> error
//     Removes a question row (the service layer restricts this to
//     unapproved questions).
//
// This repository is wrapped by services.QuestionService which enforces the
// moderation rules.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/domain"
)

// CreateQuestion inserts a new question and its acceptable answers in one
// create. CreatedAt is set to UTC. On failure, it returns a DB error.
func CreateQuestion(ctx context.Context, db *gorm.DB, title, answerDescription string, answers []string, authorID *uint, approved bool) (*domain.Question, error) {
	q := &domain.Question{
		Title:             title,
		AnswerDescription: answerDescription,
		IsApproved:        approved,
		AuthorID:          authorID,
		CreatedAt:         time.Now().UTC(),
	}
	for _, a := range answers {
		q.Answers = append(q.Answers, domain.Answer{Title: a})
	}
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestion fetches a single question by id with its answers preloaded.
// If the record does not exist, it returns ErrNotFound.
func GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.Question, error) {
	var q domain.Question
	err := db.WithContext(ctx).
		Preload("Answers").
		First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuestionByTitle fetches a question by its exact title. The service layer
// uses it to reject duplicate submissions; answers are not preloaded.
func GetQuestionByTitle(ctx context.Context, db *gorm.DB, title string) (*domain.Question, error) {
	var q domain.Question
	err := db.WithContext(ctx).
		Where("title = ?", title).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CountQuestions returns the number of questions, optionally filtered by
// approval state (approved == nil means no filter).
func CountQuestions(ctx context.Context, db *gorm.DB, approved *bool) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Question{})
	if approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListQuestionsPage returns a page of questions ordered by creation time
// descending, answers preloaded, optionally filtered by approval state.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListQuestionsPage(ctx context.Context, db *gorm.DB, approved *bool, offset, limit int) ([]domain.Question, error) {
	var out []domain.Question
	q := db.WithContext(ctx).Preload("Answers")
	if approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ApproveQuestion marks a question as eligible for selection in games.
// Returns ErrNotFound when the question does not exist.
func ApproveQuestion(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ?", id).
		Update("is_approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestion removes a question row; its answers cascade. Moderation
// rules (unapproved only) live in the service layer, not here.
func DeleteQuestion(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Question{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
