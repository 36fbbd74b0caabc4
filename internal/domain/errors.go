package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches an ID or code.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrParticipantNotFound indicates a participant ID is unknown.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrResponseNotFound indicates no response exists for a lookup.
	ErrResponseNotFound = errors.New("response not found")
	// ErrCodeTaken indicates a join code collided with an existing session.
	ErrCodeTaken = errors.New("join code already in use")
	// ErrSessionStarted is returned when mutating content of a session that
	// has already left the waiting state.
	ErrSessionStarted = errors.New("quiz session already started")
)
