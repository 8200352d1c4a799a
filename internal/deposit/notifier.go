package deposit

import (
	"context"

	"github.com/bigredeye/deposit/internal/models"
)

const (
	EventDefendUsed       = "defend_used"
	EventDefendAdded      = "defend_added"
	EventDefendDeleted    = "defend_deleted"
	EventAssignmentUpdate = "assignment_update"
)

type EventKind = string

type Event struct {
	Kind       EventKind
	Assignment string
	Deposit    models.Deposit
}

type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
