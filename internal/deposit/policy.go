package deposit

import (
	"github.com/bigredeye/deposit/internal/models"
)

// Policy describes how much a user starts with and what each failure costs.
type Policy struct {
	Initial      int
	DefendTokens int

	MissingPenalty int
	LackingPenalty int
}

func (p Policy) Penalty(record *models.AssignmentRecord) int {
	if record.Defended {
		return 0
	}
	switch record.Status() {
	case models.AssignmentStatusMissing:
		return p.MissingPenalty
	case models.AssignmentStatusLacking:
		return p.LackingPenalty
	default:
		return 0
	}
}

// Amount never drops below zero.
func (p Policy) Amount(records []models.AssignmentRecord) int {
	amount := p.Initial
	for i := range records {
		amount -= p.Penalty(&records[i])
	}
	if amount < 0 {
		return 0
	}
	return amount
}

func (p Policy) newDeposit(userID string) *models.Deposit {
	return &models.Deposit{
		UserID:      userID,
		Amount:      p.Initial,
		DefendCount: p.DefendTokens,
	}
}
