// Question HTTP handlers.
//
// This file exposes REST endpoints for the question bank:
//   - POST   /questions               (submit)
//   - GET    /questions               (list, paginated, approval filter)
//   - GET    /questions/{id}          (fetch one)
//   - POST   /questions/{id}/approve  (release into the draw pool)
//   - DELETE /questions/{id}          (remove an unapproved question)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizhub/go-trivia-bot/internal/domain"
	"github.com/quizhub/go-trivia-bot/internal/http/middleware"
	"github.com/quizhub/go-trivia-bot/internal/repo"
	"github.com/quizhub/go-trivia-bot/internal/services"
	"github.com/quizhub/go-trivia-bot/internal/utils"
)

//
// Service contracts (context-aware)
//

// QuestionService defines the question bank operations consumed by HTTP
// handlers. Implementations must honor the provided context.
type QuestionService interface {
	// Submit stores a new unapproved question with its acceptable answers.
	Submit(ctx context.Context, title, answerDescription string, answers []string, authorID *uint) (*domain.Question, error)
	// Get returns one question with its answers.
	Get(ctx context.Context, id uint) (*domain.Question, error)
	// ListPage returns a page of questions and the total count.
	ListPage(ctx context.Context, approved *bool, page, pageSize int) ([]domain.Question, int64, error)
	// Approve releases a question into the draw pool.
	Approve(ctx context.Context, id uint) error
	// Delete removes an unapproved question.
	Delete(ctx context.Context, id uint) error
}

// GameQueryService defines the read-only game views consumed by HTTP
// handlers.
type GameQueryService interface {
	// ListPage returns a page of games matching the filter and the total.
	ListPage(ctx context.Context, f repo.GameFilter, page, pageSize int) ([]domain.Game, int64, error)
	// ListUsers returns a page of known players and the total.
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	// ListChats returns a page of chats the bot has joined and the total.
	ListChats(ctx context.Context, page, pageSize int) ([]domain.Chat, int64, error)
	// Stats returns the aggregate dashboard counters.
	Stats(ctx context.Context) (*repo.Stats, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for questions and game views. It
// depends on abstract service interfaces to keep transport concerns separate
// from business logic.
type Handlers struct {
	questionSvc QuestionService
	gameSvc     GameQueryService
}

// New constructs a Handlers instance bound to the given services.
func New(questionSvc QuestionService, gameSvc GameQueryService) *Handlers {
	return &Handlers{questionSvc: questionSvc, gameSvc: gameSvc}
}

//
// DTOs
//

// SubmitQuestionRequest is the JSON payload for submitting a question.
type SubmitQuestionRequest struct {
	// Title is the question text read out to the chat.
	Title string `json:"title" binding:"required" example:"What gets wetter the more it dries?"`
	// Answers lists the acceptable answers; matching is exact up to letter case.
	Answers []string `json:"answers" binding:"required" example:"a towel,towel"`
	// AnswerDescription is the explanation sent after the verdict.
	AnswerDescription string `json:"answer_description" example:"A towel dries you while getting wetter itself."`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListQuestionsResponse wraps a page of questions and pagination info.
type ListQuestionsResponse struct {
	Questions  []domain.Question `json:"questions"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID parses the numeric :id path parameter, reporting ok=false after
// writing the 400 response.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// boolQuery parses an optional boolean query param, returning nil when the
// parameter is absent or unparseable.
func boolQuery(c *gin.Context, name string) *bool {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// paginationOf computes the metadata block for a page.
func paginationOf(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// SubmitQuestion godoc
// @ID          submitQuestion
// @Summary     Submit a question
// @Description Stores a new question with its acceptable answers. Questions enter the bank unapproved and join the draw pool only after approval.
// @Tags        Questions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.SubmitQuestionRequest  true  "Question payload"
//
// @Success     200  {object}  domain.Question  "Replayed from a previous submission"
// @Success     201  {object}  domain.Question
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Question already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions [post]
func (h *Handlers) SubmitQuestion(c *gin.Context) {
	ctx := c.Request.Context()

	var req SubmitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Idempotency (replay path) – serve the previously created question.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := c.FullPath()
	if idemKey != "" {
		if svc, okSvc := h.questionSvc.(*services.QuestionService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, middleware.ClientID(c), scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if id, err2 := strconv.ParseUint(rec.ResourceID, 10, 32); err2 == nil {
					if prev, err3 := svc.Get(ctx, uint(id)); err3 == nil {
						c.Header("Idempotency-Replayed", "true")
						ok(c, http.StatusOK, prev)
						return
					}
				}
			}
		}
	}

	q, err := h.questionSvc.Submit(ctx, req.Title, req.AnswerDescription, req.Answers, nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyTitle),
			errors.Is(err, services.ErrNoAnswers),
			errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDuplicateQuestion):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.questionSvc.(*services.QuestionService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, middleware.ClientID(c), scope, idemKey,
				strconv.FormatUint(uint64(q.ID), 10), http.StatusCreated, 24*time.Hour)
		}
	}

	ok(c, http.StatusCreated, q)
}

// ListQuestions godoc
// @ID          listQuestions
// @Summary     List questions (paginated)
// @Description Returns a page of questions, optionally filtered by approval state.
// @Tags        Questions
// @Produce     json
//
// @Param       approved   query  bool  false "Filter by approval state"
// @Param       page       query  int   false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int   false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListQuestionsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions [get]
func (h *Handlers) ListQuestions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	approved := boolQuery(c, "approved")

	items, total, err := h.questionSvc.ListPage(c.Request.Context(), approved, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListQuestionsResponse{
		Questions:  items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Fetch one question
// @Description Returns a question with its acceptable answers.
// @Tags        Questions
// @Produce     json
//
// @Param       id  path  int  true  "Question ID"
//
// @Success     200  {object}  domain.Question
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	q, err := h.questionSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "question not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, q)
}

// ApproveQuestion godoc
// @ID          approveQuestion
// @Summary     Approve a question
// @Description Releases a question into the live draw pool. Approving twice is a no-op.
// @Tags        Questions
// @Produce     json
//
// @Param       id  path  int  true  "Question ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id}/approve [post]
func (h *Handlers) ApproveQuestion(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.questionSvc.Approve(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "question not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeApproveFailed, err.Error())
		return
	}
	noContent(c)
}

// DeleteQuestion godoc
// @ID          deleteQuestion
// @Summary     Delete a question
// @Description Removes an unapproved question. Approved questions are immutable and cannot be deleted.
// @Tags        Questions
// @Produce     json
//
// @Param       id  path  int  true  "Question ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Question already approved"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id} [delete]
func (h *Handlers) DeleteQuestion(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.questionSvc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, services.ErrQuestionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "question not found")
		case errors.Is(err, services.ErrQuestionInUse):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
