package truco

import (
	"errors"

	"github.com/jason-s-yu/truco/internal/database"
)

var (
	// ErrDuplicateNickname is returned when registering a nickname that is taken.
	ErrDuplicateNickname = errors.New("nickname already registered")
	// ErrValidation is returned for input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a match, round, team or player does not exist.
	ErrNotFound = database.ErrNotFound
	// ErrIntegrity is returned when stored data breaks an assumption of the
	// engine, for example a match without exactly two teams.
	ErrIntegrity = errors.New("integrity assumption violated")
	// ErrMatchFinished is returned for writes against a finished match.
	ErrMatchFinished = errors.New("match is finished")
	// ErrConflict is returned when the match changed between planning a round
	// and committing it. Retrying the action re-plans against fresh state.
	ErrConflict = database.ErrConflict
)
