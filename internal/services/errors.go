// Package services defines the business logic behind the admin API: question
// bank curation and game inspection. This file centralizes the service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into HTTP status codes happens at the handler layer.
package services

import "errors"

var (
	// ErrQuestionNotFound indicates that the requested question does not
	// exist.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrEmptyTitle is returned when a question is submitted without text.
	ErrEmptyTitle = errors.New("question text is empty")

	// ErrNoAnswers is returned when a question is submitted without at
	// least one acceptable answer.
	ErrNoAnswers = errors.New("question needs at least one answer")

	// ErrTooLong is returned when the question text exceeds the maximum
	// configured length.
	ErrTooLong = errors.New("question text too long")

	// ErrDuplicateQuestion is returned when a submitted title matches an
	// existing question exactly.
	ErrDuplicateQuestion = errors.New("question already exists")

	// ErrQuestionInUse is returned when deleting a question that has
	// already been approved into the live pool.
	ErrQuestionInUse = errors.New("approved questions cannot be deleted")
)
