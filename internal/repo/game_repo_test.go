package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
)

// testDB opens a throwaway SQLite database with the full schema migrated.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestResolveChat_IdempotentUpsert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	c1, err := ResolveChat(ctx, db, 2000000001)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	c2, err := ResolveChat(ctx, db, 2000000001)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if c1.ID != c2.ID || c2.VKID != 2000000001 {
		t.Fatalf("resolve must return the same row: %+v vs %+v", c1, c2)
	}

	other, err := ResolveChat(ctx, db, 2000000002)
	if err != nil {
		t.Fatalf("other chat: %v", err)
	}
	if other.ID == c1.ID {
		t.Fatalf("distinct vk ids must map to distinct chats")
	}
}

func TestResolveUser_IdempotentUpsert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u1, err := ResolveUser(ctx, db, 42)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	u2, err := ResolveUser(ctx, db, 42)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if u1.ID != u2.ID {
		t.Fatalf("resolve must be idempotent: %d vs %d", u1.ID, u2.ID)
	}
}

func TestGameLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	chat, err := ResolveChat(ctx, db, 2000000001)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	// No game yet.
	if _, err := GetActiveGame(ctx, db, chat.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before creation, got %v", err)
	}

	g, err := CreateGame(ctx, db, chat.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	// Players join; duplicates are absorbed.
	alice, _ := ResolveUser(ctx, db, 42)
	bob, _ := ResolveUser(ctx, db, 43)
	for _, u := range []uint{alice.ID, bob.ID} {
		added, err := AddPlayer(ctx, db, g.ID, u)
		if err != nil || !added {
			t.Fatalf("add player %d: added=%v err=%v", u, added, err)
		}
	}
	added, err := AddPlayer(ctx, db, g.ID, alice.ID)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if added {
		t.Fatalf("duplicate join must report false")
	}

	// Start once; a second start touches nothing.
	if err := StartGame(ctx, db, g.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := StartGame(ctx, db, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second start must be ErrNotFound, got %v", err)
	}

	if err := SetCaptain(ctx, db, g.ID, alice.ID); err != nil {
		t.Fatalf("set captain: %v", err)
	}
	if err := SetRespondent(ctx, db, g.ID, bob.ID); err != nil {
		t.Fatalf("set respondent: %v", err)
	}

	// The active-game read carries players and flags.
	loaded, err := GetActiveGame(ctx, db, chat.ID)
	if err != nil {
		t.Fatalf("active game: %v", err)
	}
	if !loaded.IsStarted || len(loaded.Players) != 2 {
		t.Fatalf("loaded game mismatch: started=%v players=%d", loaded.IsStarted, len(loaded.Players))
	}
	if loaded.CaptainID == nil || *loaded.CaptainID != alice.ID {
		t.Fatalf("captain not persisted: %+v", loaded.CaptainID)
	}
	if loaded.RespondentID == nil || *loaded.RespondentID != bob.ID {
		t.Fatalf("respondent not persisted: %+v", loaded.RespondentID)
	}
}

func TestRecordQuestionAsked_And_Exclusions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	chat, _ := ResolveChat(ctx, db, 2000000001)
	g, _ := CreateGame(ctx, db, chat.ID)

	q1, err := CreateQuestion(ctx, db, "Q1", "D1", []string{"a"}, nil, true)
	if err != nil {
		t.Fatalf("q1: %v", err)
	}
	q2, err := CreateQuestion(ctx, db, "Q2", "D2", []string{"b"}, nil, true)
	if err != nil {
		t.Fatalf("q2: %v", err)
	}
	if _, err := CreateQuestion(ctx, db, "Q3", "D3", []string{"c"}, nil, false); err != nil {
		t.Fatalf("q3: %v", err)
	}

	// Only approved questions are draw-eligible.
	ids, err := ApprovedQuestionIDs(ctx, db, nil)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 approved questions, got %v", ids)
	}

	asked := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := RecordQuestionAsked(ctx, db, g.ID, q1.ID, asked); err != nil {
		t.Fatalf("record: %v", err)
	}

	loaded, err := GetActiveGame(ctx, db, chat.ID)
	if err != nil {
		t.Fatalf("active game: %v", err)
	}
	if loaded.CurrentQuestionID == nil || *loaded.CurrentQuestionID != q1.ID {
		t.Fatalf("current question not stamped: %+v", loaded.CurrentQuestionID)
	}
	if loaded.QuestionAskedAt == nil {
		t.Fatalf("answer window start not stamped")
	}
	if len(loaded.AskedQuestions) != 1 || loaded.AskedQuestions[0].ID != q1.ID {
		t.Fatalf("asked set mismatch: %+v", loaded.AskedQuestions)
	}

	// Asked questions drop out of the pool via exclusion.
	ids, err = ApprovedQuestionIDs(ctx, db, loaded.AskedQuestionIDs())
	if err != nil {
		t.Fatalf("pool with exclusions: %v", err)
	}
	if len(ids) != 1 || ids[0] != q2.ID {
		t.Fatalf("expected only q2 left, got %v", ids)
	}
}

func TestApplyScore_And_FinishGuard(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	chat, _ := ResolveChat(ctx, db, 2000000001)
	g, _ := CreateGame(ctx, db, chat.ID)
	bob, _ := ResolveUser(ctx, db, 43)
	if err := SetRespondent(ctx, db, g.ID, bob.ID); err != nil {
		t.Fatalf("set respondent: %v", err)
	}

	up, err := ApplyScore(ctx, db, g.ID, true)
	if err != nil {
		t.Fatalf("players score: %v", err)
	}
	if up.PlayersScore != 1 || up.BotScore != 0 {
		t.Fatalf("score mismatch: %+v", up)
	}
	up, err = ApplyScore(ctx, db, g.ID, false)
	if err != nil {
		t.Fatalf("bot score: %v", err)
	}
	if up.PlayersScore != 1 || up.BotScore != 1 {
		t.Fatalf("score mismatch: %+v", up)
	}

	if err := FinishGame(ctx, db, g.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}

	// Finished is absorbing: no further scores, no re-finish, no active read,
	// and the respondent slot is cleared.
	if _, err := ApplyScore(ctx, db, g.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("score after finish must be ErrNotFound, got %v", err)
	}
	if err := FinishGame(ctx, db, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double finish must be ErrNotFound, got %v", err)
	}
	if _, err := GetActiveGame(ctx, db, chat.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("finished game must not be active, got %v", err)
	}
	var after struct{ RespondentID *uint }
	if err := db.Table("games").Select("respondent_id").Where("id = ?", g.ID).Scan(&after).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if after.RespondentID != nil {
		t.Fatalf("finish must clear the respondent, got %v", *after.RespondentID)
	}

	// A new game for the same chat is allowed once the old one is finished.
	if _, err := CreateGame(ctx, db, chat.ID); err != nil {
		t.Fatalf("new game after finish: %v", err)
	}
}
