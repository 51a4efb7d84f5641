package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/signal-waitlist/internal/models"
	"github.com/akeren/signal-waitlist/pkg/circuitbreaker"
	"github.com/akeren/signal-waitlist/pkg/constants"
	apperrors "github.com/akeren/signal-waitlist/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// AppendEntry stores a new entry, assigning its id and creation time, and returns the stored copy.
	AppendEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	// GetAllEntries returns every entry in submission order.
	GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error)
	// StorageLabel names the backend in read responses.
	StorageLabel() string
	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error
}

type waitlistRepository struct {
	db      *gorm.DB
	breaker circuitbreaker.CircuitBreaker
}

func NewWaitlistRepository(db *gorm.DB, breaker circuitbreaker.CircuitBreaker) WaitlistRepository {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}
	return &waitlistRepository{db: db, breaker: breaker}
}

func (wr *waitlistRepository) AppendEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if entry == nil {
		return nil, apperrors.NewInvalidRequestError("entry cannot be nil", nil)
	}

	stored := *entry
	stored.ID = ""

	err := wr.breaker.Execute(ctx, func(ctx context.Context) error {
		return wr.db.WithContext(ctx).Create(&stored).Error
	})
	if err != nil {
		return nil, persistenceError("unable to save waitlist entry", err)
	}

	return &stored, nil
}

func (wr *waitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	entries := []*models.WaitlistEntry{}

	// Ids are time-ordered, so they break created_at ties in write order.
	err := wr.breaker.Execute(ctx, func(ctx context.Context) error {
		return wr.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&entries).Error
	})
	if err != nil {
		return nil, persistenceError("unable to fetch waitlist entries", err)
	}

	return entries, nil
}

func (wr *waitlistRepository) StorageLabel() string {
	return constants.StorageLabelDatabase
}

func (wr *waitlistRepository) Ping(ctx context.Context) error {
	sqlDB, err := wr.db.DB()
	if err != nil {
		return persistenceError("database handle unavailable", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return persistenceError("database ping failed", err)
	}
	return nil
}

func persistenceError(message string, err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return apperrors.NewPersistenceError("waitlist storage temporarily unavailable", err)
	}
	return apperrors.NewPersistenceError(message, err)
}
