package quiz

import "errors"

var (
	// ErrNoQuestionsAvailable means the source answered but had nothing usable for the filters.
	ErrNoQuestionsAvailable = errors.New("no questions available for these settings")
	// ErrTransport means the request to the question source did not complete.
	ErrTransport = errors.New("question source unreachable")
	// ErrSessionComplete is returned when answering a session that has no current question.
	ErrSessionComplete = errors.New("quiz session already complete")
	// ErrNotFound is returned by a Store for an absent key.
	ErrNotFound = errors.New("key not found")
)
