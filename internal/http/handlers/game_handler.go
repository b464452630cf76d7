// Game HTTP handlers.
//
// Read-only endpoints over played games and their participants:
//   - GET /games  (list, paginated, filterable)
//   - GET /users  (player directory, paginated)
//   - GET /chats  (chat directory, paginated)
//   - GET /stats  (aggregate dashboard counters)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quizhub/go-trivia-bot/internal/domain"
	"github.com/quizhub/go-trivia-bot/internal/repo"
)

// ListGamesResponse wraps a page of games and pagination information.
type ListGamesResponse struct {
	Games      []domain.Game `json:"games"`
	Pagination Pagination    `json:"pagination"`
}

// ListGames godoc
// @ID          listGames
// @Summary     List games (paginated)
// @Description Returns a page of games, newest first, optionally filtered by chat and lifecycle state.
// @Tags        Games
// @Produce     json
//
// @Param       chat_id    query  int   false "Filter by internal chat id"
// @Param       started    query  bool  false "Filter by started state"
// @Param       finished   query  bool  false "Filter by finished state"
// @Param       page       query  int   false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int   false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListGamesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games [get]
func (h *Handlers) ListGames(c *gin.Context) {
	page, pageSize := clampPagination(c)

	f := repo.GameFilter{
		IsStarted:  boolQuery(c, "started"),
		IsFinished: boolQuery(c, "finished"),
	}
	if v := c.Query("chat_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil && id > 0 {
			cid := uint(id)
			f.ChatID = &cid
		}
	}

	items, total, err := h.gameSvc.ListPage(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListGamesResponse{
		Games:      items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// ListUsersResponse wraps a page of players and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List players (paginated)
// @Description Returns a page of players the bot has seen, newest first.
// @Tags        Games
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.gameSvc.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{
		Users:      items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// ListChatsResponse wraps a page of chats and pagination information.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// ListChats godoc
// @ID          listChats
// @Summary     List chats (paginated)
// @Description Returns a page of chats the bot has joined, newest first.
// @Tags        Games
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListChatsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.gameSvc.ListChats(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListChatsResponse{
		Chats:      items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetStats godoc
// @ID          getStats
// @Summary     Aggregate statistics
// @Description Returns headline counters across chats, users, games, and the question bank.
// @Tags        Games
// @Produce     json
//
// @Success     200  {object}  repo.Stats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	s, err := h.gameSvc.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, s)
}
