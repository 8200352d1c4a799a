package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"moul.io/zapgorm2"

	"github.com/bigredeye/deposit/internal/deposit"
	"github.com/bigredeye/deposit/internal/models"
)

type DataBase struct {
	*gorm.DB
}

var _ deposit.Repository = (*DataBase)(nil)

type DuplicateKey struct {
	nested error
}

func (e *DuplicateKey) Error() string {
	return e.nested.Error()
}

func (e *DuplicateKey) Unwrap() error {
	return e.nested
}

func IsDuplicateKey(err error) bool {
	duplicateKey := &DuplicateKey{}
	return errors.As(err, &duplicateKey)
}

// https://github.com/go-gorm/gorm/issues/4037
func isUniqueViolation(err error) bool {
	var perr *pgconn.PgError
	if errors.As(err, &perr) {
		return perr.Code == "23505"
	}
	return false
}

func OpenDataBase(logger *zap.Logger, dsn string, retries uint64) (*DataBase, error) {
	zapLogger := zapgorm2.New(logger.Named("gorm"))
	zapLogger.SetAsDefault()

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: zapLogger,
		})
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("Failed to connect to database, retrying", zap.Error(err), zap.Duration("next", next))
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries)
	if err := backoff.RetryNotify(connect, policy, notify); err != nil {
		return nil, err
	}

	err := db.AutoMigrate(&models.User{}, &models.Deposit{}, &models.AssignmentRecord{})
	if err != nil {
		return nil, err
	}

	return &DataBase{db}, nil
}

func (db *DataBase) Transaction(ctx context.Context, fn func(repo deposit.Repository) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DataBase{tx})
	})
}

func (db *DataBase) AddUser(ctx context.Context, user *models.User) (*models.User, error) {
	var res models.User
	err := db.WithContext(ctx).Where(models.User{ID: user.ID}).Attrs(*user).FirstOrCreate(&res).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &DuplicateKey{err}
		}
		return nil, err
	}
	return &res, nil
}

func (db *DataBase) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (db *DataBase) SetUserRole(ctx context.Context, id string, role models.Role) error {
	res := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("unknown user %s", id)
	}
	return nil
}

func (db *DataBase) FindDeposit(ctx context.Context, userID string, forUpdate bool) (*models.Deposit, error) {
	var res models.Deposit
	query := db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.Take(&res, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (db *DataBase) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(deposit).Error
}

func (db *DataBase) SaveDeposit(ctx context.Context, deposit *models.Deposit) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "defend_count", "updated_at"}),
	}).Create(deposit).Error
}

func (db *DataBase) ListDeposits(ctx context.Context) (deposits []models.Deposit, err error) {
	deposits = make([]models.Deposit, 0)
	err = db.WithContext(ctx).Order("user_id").Find(&deposits).Error
	if err != nil {
		deposits = nil
	}
	return
}

func (db *DataBase) ListUserAssignments(ctx context.Context, userID string) (records []models.AssignmentRecord, err error) {
	records = make([]models.AssignmentRecord, 0)
	err = db.WithContext(ctx).Order("id").Find(&records, "user_id = ?", userID).Error
	if err != nil {
		records = nil
	}
	return
}

// keepDefended clears the defended flag once the stored status changes.
var keepDefended = clause.Assignment{
	Column: clause.Column{Name: "defended"},
	Value: gorm.Expr(`CASE WHEN "assignment_records"."check" = excluded."check" AND "assignment_records"."pass" = excluded."pass" ` +
		`THEN "assignment_records"."defended" ELSE FALSE END`),
}

func (db *DataBase) UpsertAssignment(ctx context.Context, record *models.AssignmentRecord) error {
	updates := clause.AssignmentColumns([]string{"check", "pass", "updated_at", "deleted_at"})
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "assignment"}},
		DoUpdates: append(updates, keepDefended),
	}).Create(record).Error
}

func (db *DataBase) SetAssignmentDefended(ctx context.Context, id uint) error {
	res := db.WithContext(ctx).Model(&models.AssignmentRecord{}).Where("id = ?", id).Update("defended", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("unknown assignment record %d", id)
	}
	return nil
}
