package domain

import "errors"

var (
	// ErrNoCurrentQuiz is returned when the current-quiz directory holds no record.
	ErrNoCurrentQuiz = errors.New("no current quiz loaded")
	// ErrQuizNotFound indicates the requested quiz record could not be loaded.
	ErrQuizNotFound = errors.New("quiz record not found")
	// ErrGuessCountMismatch indicates a submission does not line up with the record's players.
	ErrGuessCountMismatch = errors.New("guess count does not match player count")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
