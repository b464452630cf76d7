package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQuestionCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	q, err := CreateQuestion(ctx, db, "What gets wetter the more it dries?", "A towel.", []string{"a towel", "towel"}, nil, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.ID == 0 || q.IsApproved {
		t.Fatalf("fresh question must be unapproved with an id: %+v", q)
	}

	got, err := GetQuestion(ctx, db, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != q.Title || len(got.Answers) != 2 {
		t.Fatalf("answers not preloaded: %+v", got)
	}
	if got.Answers[0].Title != "a towel" || got.Answers[1].Title != "towel" {
		t.Fatalf("answer order not preserved: %+v", got.Answers)
	}

	if _, err := GetQuestion(ctx, db, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing question must be ErrNotFound, got %v", err)
	}

	if err := ApproveQuestion(ctx, db, q.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ = GetQuestion(ctx, db, q.ID)
	if !got.IsApproved {
		t.Fatalf("approval not persisted")
	}
	if err := ApproveQuestion(ctx, db, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approving a missing question must be ErrNotFound, got %v", err)
	}

	if err := DeleteQuestion(ctx, db, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetQuestion(ctx, db, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted question must be gone, got %v", err)
	}
	if err := DeleteQuestion(ctx, db, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete must be ErrNotFound, got %v", err)
	}
}

func TestGetQuestionByTitle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	created, err := CreateQuestion(ctx, db, "What gets wetter the more it dries?", "A towel.", []string{"a towel"}, nil, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := GetQuestionByTitle(ctx, db, "What gets wetter the more it dries?")
	if err != nil {
		t.Fatalf("by title: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("wrong question: got %d want %d", got.ID, created.ID)
	}

	// Lookup is exact: a different casing is a different title.
	if _, err := GetQuestionByTitle(ctx, db, "what gets wetter the more it dries?"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("case-variant title must be ErrNotFound, got %v", err)
	}
	if _, err := GetQuestionByTitle(ctx, db, "no such question"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing title must be ErrNotFound, got %v", err)
	}
}

func TestQuestionListing_FilterAndPaging(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := CreateQuestion(ctx, db, "approved", "d", []string{"a"}, nil, true); err != nil {
			t.Fatalf("seed approved: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := CreateQuestion(ctx, db, "pending", "d", []string{"a"}, nil, false); err != nil {
			t.Fatalf("seed pending: %v", err)
		}
	}

	total, err := CountQuestions(ctx, db, nil)
	if err != nil || total != 5 {
		t.Fatalf("count all: total=%d err=%v", total, err)
	}
	approved := true
	total, err = CountQuestions(ctx, db, &approved)
	if err != nil || total != 3 {
		t.Fatalf("count approved: total=%d err=%v", total, err)
	}

	page, err := ListQuestionsPage(ctx, db, &approved, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	for _, q := range page {
		if !q.IsApproved {
			t.Fatalf("filter leaked an unapproved question: %+v", q)
		}
		if len(q.Answers) == 0 {
			t.Fatalf("listing must preload answers")
		}
	}

	rest, err := ListQuestionsPage(ctx, db, &approved, 2, 2)
	if err != nil || len(rest) != 1 {
		t.Fatalf("second page: len=%d err=%v", len(rest), err)
	}
}

func TestIdempotencyRecords(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Miss before any write; blank keys short-circuit.
	if _, err := GetIdempotency(ctx, db, "cli", "/questions", "k-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected miss, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "cli", "/questions", "  ", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank key must miss without querying, got %v", err)
	}

	rec, err := CreateIdempotency(ctx, db, "cli", "/questions", "k-1", "17", 201, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.ResourceID != "17" || rec.Status != 201 {
		t.Fatalf("record mismatch: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "cli", "/questions", "k-1", now)
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if got.ResourceID != "17" {
		t.Fatalf("resource mismatch: %+v", got)
	}

	// The tuple is scoped: other client or other scope misses.
	if _, err := GetIdempotency(ctx, db, "other", "/questions", "k-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other client must miss, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "cli", "/games", "k-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other scope must miss, got %v", err)
	}

	// Expiry: a lookup past the TTL misses.
	if _, err := GetIdempotency(ctx, db, "cli", "/questions", "k-1", now.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record must miss, got %v", err)
	}

	// Re-inserting the same tuple is a duplicate.
	if _, err := CreateIdempotency(ctx, db, "cli", "/questions", "k-1", "18", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
