// Package services – QuestionService
//
// This file implements the QuestionService, which governs the question bank
// feeding the game: submitting new questions with their acceptable answers,
// moderating them into the live pool, and removing rejected ones. Only
// approved questions are ever drawn during a game, so moderation rules live
// here rather than in the repository.
//
// Service-level errors (ErrEmptyTitle, ErrNoAnswers, ErrDuplicateQuestion,
// ErrQuestionNotFound, ErrQuestionInUse) are returned for predictable cases
// so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/domain"
)

// QuestionRepo defines the repository contract required by QuestionService.
type QuestionRepo interface {
	CreateQuestion(ctx context.Context, db *gorm.DB, title, answerDescription string, answers []string, authorID *uint, approved bool) (*domain.Question, error)
	GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.Question, error)
	GetQuestionByTitle(ctx context.Context, db *gorm.DB, title string) (*domain.Question, error)
	CountQuestions(ctx context.Context, db *gorm.DB, approved *bool) (int64, error)
	ListQuestionsPage(ctx context.Context, db *gorm.DB, approved *bool, offset, limit int) ([]domain.Question, error)
	ApproveQuestion(ctx context.Context, db *gorm.DB, id uint) error
	DeleteQuestion(ctx context.Context, db *gorm.DB, id uint) error
}

// QuestionService manages the question bank and its moderation workflow.
type QuestionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the question repository used by this service.
	Repo QuestionRepo

	// TitleMaxRunes caps question text by rune length.
	TitleMaxRunes int
	// DescMaxRunes caps the answer description by rune length.
	DescMaxRunes int
}

// NewQuestionService constructs a QuestionService with sane length limits.
func NewQuestionService(db *gorm.DB, r QuestionRepo) *QuestionService {
	return &QuestionService{
		DB:            db,
		Repo:          r,
		TitleMaxRunes: 2000,
		DescMaxRunes:  2000,
	}
}

// Submit validates and stores a new question. Questions enter the bank
// unapproved and stay out of the draw pool until Approve.
//
// Validation:
//   - title must be non-blank after trimming; otherwise ErrEmptyTitle.
//   - title must fit TitleMaxRunes; otherwise ErrTooLong.
//   - title must not match an existing question exactly; otherwise
//     ErrDuplicateQuestion.
//   - at least one non-blank answer is required; otherwise ErrNoAnswers.
//
// Answers and the description are trimmed; blank answers are dropped rather
// than rejected so that sloppy input still submits cleanly.
func (s *QuestionService) Submit(ctx context.Context, title, answerDescription string, answers []string, authorID *uint) (*domain.Question, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > s.TitleMaxRunes {
		return nil, ErrTooLong
	}

	existing, err := s.Repo.GetQuestionByTitle(ctx, s.DB, title)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateQuestion
	}

	clean := make([]string, 0, len(answers))
	for _, a := range answers {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoAnswers
	}

	return s.Repo.CreateQuestion(ctx, s.DB, title, s.clipDesc(answerDescription), clean, authorID, false)
}

// Get returns one question with its answers, or ErrQuestionNotFound.
func (s *QuestionService) Get(ctx context.Context, id uint) (*domain.Question, error) {
	q, err := s.Repo.GetQuestion(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListPage returns a page of questions, optionally filtered by approval
// state, together with the total count. It applies defaults for invalid
// page/pageSize.
func (s *QuestionService) ListPage(ctx context.Context, approved *bool, page, pageSize int) ([]domain.Question, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountQuestions(ctx, s.DB, approved)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Question{}, 0, nil
	}

	items, err := s.Repo.ListQuestionsPage(ctx, s.DB, approved, offset, pageSize)
	return items, total, err
}

// Approve releases a question into the live draw pool. Approving an already
// approved question is a no-op success.
func (s *QuestionService) Approve(ctx context.Context, id uint) error {
	if err := s.Repo.ApproveQuestion(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

// Delete removes a question that has not been approved. Approved questions
// may already appear in finished games' history and are kept immutable;
// deleting one yields ErrQuestionInUse.
func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	q, err := s.Repo.GetQuestion(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	if q.IsApproved {
		return ErrQuestionInUse
	}
	if err := s.Repo.DeleteQuestion(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

// clipDesc trims and clips the answer description by rune count.
func (s *QuestionService) clipDesc(desc string) string {
	desc = strings.TrimSpace(desc)
	if utf8.RuneCountInString(desc) <= s.DescMaxRunes {
		return desc
	}
	runes := []rune(desc)
	return string(runes[:s.DescMaxRunes])
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
