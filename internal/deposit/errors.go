package deposit

import "github.com/pkg/errors"

var (
	ErrDepositNotFound  = errors.New("Deposit record not found")
	ErrNoDefendLeft     = errors.New("No defend tokens left")
	ErrNothingToDefend  = errors.New("No penalized assignment to defend")
	ErrEmptyAssignment  = errors.New("Assignment name is empty")
	ErrConflictingLists = errors.New("User is both in lack and x lists")
	ErrEmptyUserID      = errors.New("User id is empty")
)
