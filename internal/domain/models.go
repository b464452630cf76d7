// Package domain defines the persistence models for chats, users, games and
// questions. These types are mapped with GORM and form the core data layer
// of the trivia bot.
package domain

import (
	"time"
)

// Chat represents a group conversation the bot has been invited to. A chat is
// created on the first "bot added" event and is never mutated or deleted
// afterwards; the external VK peer id maps 1:1 onto the internal id.
type Chat struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	VKID      int64     `json:"vk_id"      gorm:"not null;uniqueIndex:ux_chats_vk_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// User represents a chat member known to the bot. Users are created lazily
// the first time they interact and are immutable after creation.
type User struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	VKID      int64     `json:"vk_id"      gorm:"not null;uniqueIndex:ux_users_vk_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Game is the central mutable aggregate: one round-based match between the
// joined players and the bot inside a single chat.
//
// Invariants upheld by the engine and repository:
//   - at most one game per chat has IsFinished == false at any time;
//   - CaptainID and RespondentID, when set, reference members of Players;
//   - BotScore and PlayersScore only grow until IsFinished becomes true;
//   - AskedQuestions accumulates every question drawn for this game so a
//     question is never repeated within a game.
//
// Lifecycle: created on /start, mutated exclusively through engine
// transitions, never deleted, only marked finished.
type Game struct {
	ID     uint `json:"id"      gorm:"primaryKey"`
	// The partial unique index backs the one-active-game-per-chat rule at
	// the storage layer; the engine enforces it first via GetActiveGame.
	ChatID uint `json:"chat_id" gorm:"not null;index:idx_games_chat;uniqueIndex:ux_games_chat_active,where:is_finished = false"`
	Chat   Chat `json:"-"       gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CaptainID    *uint `json:"captain_id,omitempty"`
	RespondentID *uint `json:"respondent_id,omitempty"`

	CurrentQuestionID *uint      `json:"current_question_id,omitempty"`
	QuestionAskedAt   *time.Time `json:"question_asked_at,omitempty"`

	BotScore     int  `json:"bot_score"     gorm:"not null;default:0"`
	PlayersScore int  `json:"players_score" gorm:"not null;default:0"`
	IsStarted    bool `json:"is_started"    gorm:"not null;default:false"`
	IsFinished   bool `json:"is_finished"   gorm:"not null;default:false;index:idx_games_finished"`

	Players        []User     `json:"players,omitempty"         gorm:"many2many:game_players"`
	AskedQuestions []Question `json:"asked_questions,omitempty" gorm:"many2many:game_questions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string { return "games" }

// HasPlayer reports whether the user id is a member of the joined players.
func (g *Game) HasPlayer(userID uint) bool {
	for _, p := range g.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// AskedQuestionIDs returns the ids of every question already drawn this game.
func (g *Game) AskedQuestionIDs() []uint {
	ids := make([]uint, 0, len(g.AskedQuestions))
	for _, q := range g.AskedQuestions {
		ids = append(ids, q.ID)
	}
	return ids
}

// Question is a quiz question with an ordered list of acceptable answers.
// Only approved questions are eligible for selection during games. Once
// approved a question is immutable except for deletion of unapproved rows
// through the admin layer.
type Question struct {
	ID                uint     `json:"id"                 gorm:"primaryKey"`
	Title             string   `json:"title"              gorm:"type:text;not null"`
	AnswerDescription string   `json:"answer_description" gorm:"type:text;not null"`
	IsApproved        bool     `json:"is_approved"        gorm:"not null;default:false;index:idx_questions_approved"`
	AuthorID          *uint    `json:"author_id,omitempty"`
	Answers           []Answer `json:"answers,omitempty"  gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// Answer is one acceptable answer string for a question. Comparison against
// submissions is case-folded exact membership, never substring matching.
type Answer struct {
	ID         uint   `json:"id"          gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index:idx_answers_question"`
	Title      string `json:"title"       gorm:"type:text;not null"`
}

// TableName returns the database table name for Answer.
func (Answer) TableName() string { return "answers" }
