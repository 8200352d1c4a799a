package deposit

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	lf "github.com/bigredeye/deposit/internal/logfield"
	"github.com/bigredeye/deposit/internal/models"
)

// Repository is the storage the service runs on. Find methods return
// (nil, nil) when nothing matches.
type Repository interface {
	Transaction(ctx context.Context, fn func(repo Repository) error) error

	FindDeposit(ctx context.Context, userID string, forUpdate bool) (*models.Deposit, error)
	// CreateDeposit inserts the deposit unless one already exists.
	CreateDeposit(ctx context.Context, deposit *models.Deposit) error
	SaveDeposit(ctx context.Context, deposit *models.Deposit) error

	ListUserAssignments(ctx context.Context, userID string) ([]models.AssignmentRecord, error)
	UpsertAssignment(ctx context.Context, record *models.AssignmentRecord) error
	SetAssignmentDefended(ctx context.Context, id uint) error
}

type Summary struct {
	Deposit     models.Deposit
	Assignments []models.AssignmentRecord
}

type Service struct {
	repo     Repository
	policy   Policy
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo Repository, policy Policy, notifier Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		logger:   logger.With(lf.Module("deposit")),
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) CheckDeposit(ctx context.Context, userID string) (*Summary, error) {
	deposit, err := s.repo.FindDeposit(ctx, userID, false)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to find deposit")
	}
	if deposit == nil {
		return nil, ErrDepositNotFound
	}

	records, err := s.repo.ListUserAssignments(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list assignments")
	}

	return &Summary{Deposit: *deposit, Assignments: records}, nil
}

func (s *Service) UseDefend(ctx context.Context, userID string) (*models.Deposit, error) {
	var res models.Deposit
	var defended string
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		deposit, err := mustFindDeposit(ctx, repo, userID)
		if err != nil {
			return err
		}
		if deposit.DefendCount <= 0 {
			return ErrNoDefendLeft
		}

		records, err := repo.ListUserAssignments(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "Failed to list assignments")
		}

		target := s.pickDefendTarget(records)
		if target < 0 {
			return ErrNothingToDefend
		}
		if err = repo.SetAssignmentDefended(ctx, records[target].ID); err != nil {
			return errors.Wrap(err, "Failed to mark assignment defended")
		}
		records[target].Defended = true
		defended = records[target].Assignment

		deposit.DefendCount--
		deposit.Amount = s.policy.Amount(records)
		if err = repo.SaveDeposit(ctx, deposit); err != nil {
			return errors.Wrap(err, "Failed to save deposit")
		}
		res = *deposit
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Used defend token",
		lf.UserID(userID),
		lf.Assignment(defended),
		lf.Amount(res.Amount),
		lf.DefendCount(res.DefendCount),
	)
	s.notifier.Notify(ctx, Event{Kind: EventDefendUsed, Assignment: defended, Deposit: res})
	return &res, nil
}

// pickDefendTarget returns the index of the undefended record with the
// largest penalty, preferring the most recently updated one, or -1.
func (s *Service) pickDefendTarget(records []models.AssignmentRecord) int {
	target := -1
	best := 0
	for i := range records {
		penalty := s.policy.Penalty(&records[i])
		if penalty <= 0 {
			continue
		}
		if target < 0 || penalty > best || (penalty == best && newer(&records[i], &records[target])) {
			target = i
			best = penalty
		}
	}
	return target
}

func newer(left, right *models.AssignmentRecord) bool {
	if left.UpdatedAt.Equal(right.UpdatedAt) {
		return left.ID > right.ID
	}
	return left.UpdatedAt.After(right.UpdatedAt)
}

func (s *Service) AddDefend(ctx context.Context, userID string) (*models.Deposit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}

	var res models.Deposit
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		deposit, err := s.findOrCreateDeposit(ctx, repo, userID)
		if err != nil {
			return err
		}
		deposit.DefendCount++
		if err = s.recalculate(ctx, repo, deposit); err != nil {
			return err
		}
		res = *deposit
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added defend token", lf.UserID(userID), lf.DefendCount(res.DefendCount))
	s.notifier.Notify(ctx, Event{Kind: EventDefendAdded, Deposit: res})
	return &res, nil
}

func (s *Service) DeleteDefend(ctx context.Context, userID string) (*models.Deposit, error) {
	var res models.Deposit
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		deposit, err := mustFindDeposit(ctx, repo, userID)
		if err != nil {
			return err
		}
		if deposit.DefendCount <= 0 {
			return ErrNoDefendLeft
		}
		deposit.DefendCount--
		if err = repo.SaveDeposit(ctx, deposit); err != nil {
			return errors.Wrap(err, "Failed to save deposit")
		}
		res = *deposit
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deleted defend token", lf.UserID(userID), lf.DefendCount(res.DefendCount))
	s.notifier.Notify(ctx, Event{Kind: EventDefendDeleted, Deposit: res})
	return &res, nil
}

// InsertAssignment registers the lacking and missing submissions of one
// assignment. Users not mentioned in either list are left untouched.
func (s *Service) InsertAssignment(ctx context.Context, assignment string, lackList, xList []string) ([]models.Deposit, error) {
	assignment = strings.TrimSpace(assignment)
	if assignment == "" {
		return nil, ErrEmptyAssignment
	}

	lack := normalizeUsers(lackList)
	missing := normalizeUsers(xList)
	for _, userID := range missing {
		if _, found := slices.BinarySearch(lack, userID); found {
			return nil, errors.Wrapf(ErrConflictingLists, "user %s", userID)
		}
	}

	records := make([]models.AssignmentRecord, 0, len(lack)+len(missing))
	for _, userID := range lack {
		records = append(records, models.AssignmentRecord{UserID: userID, Assignment: assignment, Check: true})
	}
	for _, userID := range missing {
		records = append(records, models.AssignmentRecord{UserID: userID, Assignment: assignment})
	}
	slices.SortFunc(records, func(left, right models.AssignmentRecord) bool {
		return left.UserID < right.UserID
	})

	res := make([]models.Deposit, 0, len(records))
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		res = res[:0]
		for i := range records {
			deposit, err := s.findOrCreateDeposit(ctx, repo, records[i].UserID)
			if err != nil {
				return err
			}
			if err = repo.UpsertAssignment(ctx, &records[i]); err != nil {
				return errors.Wrapf(err, "Failed to save assignment of %s", records[i].UserID)
			}
			if err = s.recalculate(ctx, repo, deposit); err != nil {
				return err
			}
			res = append(res, *deposit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inserted assignment",
		lf.Assignment(assignment),
		zap.Int("lacking", len(lack)),
		zap.Int("missing", len(missing)),
	)
	for _, deposit := range res {
		s.notifier.Notify(ctx, Event{Kind: EventAssignmentUpdate, Assignment: assignment, Deposit: deposit})
	}
	return res, nil
}

func (s *Service) UpdateAssignment(ctx context.Context, userID, assignment string, check, pass bool) (*models.Deposit, error) {
	assignment = strings.TrimSpace(assignment)
	if assignment == "" {
		return nil, ErrEmptyAssignment
	}

	var res models.Deposit
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		deposit, err := mustFindDeposit(ctx, repo, userID)
		if err != nil {
			return err
		}
		record := &models.AssignmentRecord{
			UserID:     userID,
			Assignment: assignment,
			Check:      check,
			Pass:       pass,
		}
		if err = repo.UpsertAssignment(ctx, record); err != nil {
			return errors.Wrap(err, "Failed to save assignment")
		}
		if err = s.recalculate(ctx, repo, deposit); err != nil {
			return err
		}
		res = *deposit
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated assignment",
		lf.UserID(userID),
		lf.Assignment(assignment),
		zap.Bool("check", check),
		zap.Bool("pass", pass),
		lf.Amount(res.Amount),
	)
	s.notifier.Notify(ctx, Event{Kind: EventAssignmentUpdate, Assignment: assignment, Deposit: res})
	return &res, nil
}

func (s *Service) recalculate(ctx context.Context, repo Repository, deposit *models.Deposit) error {
	records, err := repo.ListUserAssignments(ctx, deposit.UserID)
	if err != nil {
		return errors.Wrap(err, "Failed to list assignments")
	}
	deposit.Amount = s.policy.Amount(records)
	return errors.Wrap(repo.SaveDeposit(ctx, deposit), "Failed to save deposit")
}

// findOrCreateDeposit returns the locked deposit of the user. A missing row is
// inserted first, so concurrent creators end up waiting on the same row lock.
func (s *Service) findOrCreateDeposit(ctx context.Context, repo Repository, userID string) (*models.Deposit, error) {
	deposit, err := repo.FindDeposit(ctx, userID, true)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to find deposit")
	}
	if deposit != nil {
		return deposit, nil
	}

	if err = repo.CreateDeposit(ctx, s.policy.newDeposit(userID)); err != nil {
		return nil, errors.Wrap(err, "Failed to create deposit")
	}
	return mustFindDeposit(ctx, repo, userID)
}

func mustFindDeposit(ctx context.Context, repo Repository, userID string) (*models.Deposit, error) {
	deposit, err := repo.FindDeposit(ctx, userID, true)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to find deposit")
	}
	if deposit == nil {
		return nil, ErrDepositNotFound
	}
	return deposit, nil
}

func normalizeUsers(users []string) []string {
	res := make([]string, 0, len(users))
	for _, user := range users {
		if user = strings.TrimSpace(user); user != "" {
			res = append(res, user)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}
