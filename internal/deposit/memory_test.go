package deposit

import (
	"context"
	"errors"
	"time"

	"github.com/bigredeye/deposit/internal/models"
)

type memoryRepo struct {
	deposits map[string]models.Deposit
	records  []models.AssignmentRecord
	clock    time.Time
	nextID   uint

	failUpsert error
	// beforeCreate runs inside CreateDeposit, standing in for a concurrent
	// transaction that commits first.
	beforeCreate func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		deposits: make(map[string]models.Deposit),
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *memoryRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *memoryRepo) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	deposits := make(map[string]models.Deposit, len(r.deposits))
	for k, v := range r.deposits {
		deposits[k] = v
	}
	records := append([]models.AssignmentRecord(nil), r.records...)
	nextID := r.nextID

	if err := fn(r); err != nil {
		r.deposits = deposits
		r.records = records
		r.nextID = nextID
		return err
	}
	return nil
}

func (r *memoryRepo) FindDeposit(ctx context.Context, userID string, forUpdate bool) (*models.Deposit, error) {
	d, ok := r.deposits[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memoryRepo) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
		r.beforeCreate = nil
	}
	if _, ok := r.deposits[deposit.UserID]; ok {
		return nil
	}
	deposit.CreatedAt = r.tick()
	deposit.UpdatedAt = deposit.CreatedAt
	r.deposits[deposit.UserID] = *deposit
	return nil
}

func (r *memoryRepo) SaveDeposit(ctx context.Context, deposit *models.Deposit) error {
	deposit.UpdatedAt = r.tick()
	r.deposits[deposit.UserID] = *deposit
	return nil
}

func (r *memoryRepo) ListUserAssignments(ctx context.Context, userID string) ([]models.AssignmentRecord, error) {
	res := make([]models.AssignmentRecord, 0)
	for _, record := range r.records {
		if record.UserID == userID {
			res = append(res, record)
		}
	}
	return res, nil
}

func (r *memoryRepo) UpsertAssignment(ctx context.Context, record *models.AssignmentRecord) error {
	if r.failUpsert != nil {
		return r.failUpsert
	}
	now := r.tick()
	for i := range r.records {
		if r.records[i].UserID == record.UserID && r.records[i].Assignment == record.Assignment {
			if r.records[i].Check != record.Check || r.records[i].Pass != record.Pass {
				r.records[i].Defended = false
			}
			r.records[i].Check = record.Check
			r.records[i].Pass = record.Pass
			r.records[i].UpdatedAt = now
			*record = r.records[i]
			return nil
		}
	}
	r.nextID++
	record.ID = r.nextID
	record.CreatedAt = now
	record.UpdatedAt = now
	r.records = append(r.records, *record)
	return nil
}

func (r *memoryRepo) SetAssignmentDefended(ctx context.Context, id uint) error {
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Defended = true
			r.records[i].UpdatedAt = r.tick()
			return nil
		}
	}
	return errors.New("unknown assignment")
}

type recordingNotifier struct {
	events []Event
}

func (n *recordingNotifier) Notify(ctx context.Context, event Event) {
	n.events = append(n.events, event)
}
