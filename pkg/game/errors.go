package game

import "errors"

// Precondition violations. These are returned before any state is touched;
// a transition either commits in full or leaves its input untouched.
var (
	ErrNotYourTurn        = errors.New("not this seat's turn")
	ErrWrongPhase         = errors.New("action not allowed in current phase")
	ErrRoundFinished      = errors.New("round is finished")
	ErrSeatOutOfRange     = errors.New("seat index out of range")
	ErrSeatEliminated     = errors.New("seat is eliminated")
	ErrEmptyPlay          = errors.New("play must contain at least one card")
	ErrCardNotOwned       = errors.New("card is not in the acting seat's hand")
	ErrIllegalPlay        = errors.New("cards do not form a legal play")
	ErrEmptyDrawSource    = errors.New("draw source is empty")
	ErrCardNotAvailable   = errors.New("card is not in the last play")
	ErrHandTooBig         = errors.New("hand points above the call threshold")
	ErrHandSizeOutOfRange = errors.New("hand size outside the allowed range")
	ErrUnknownAction      = errors.New("unknown action type")
)

// ErrStateCorrupt marks an invariant violation, e.g. a card identifier
// appearing in two places. Not user-recoverable.
var ErrStateCorrupt = errors.New("game state corrupt")
