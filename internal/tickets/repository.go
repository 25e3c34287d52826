package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Ticket CRUD
	CreateBatch(ctx context.Context, tickets []Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Ticket, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]Ticket, error)
	FindByHolder(ctx context.Context, holder string) ([]Ticket, error)

	// UpdateFromStatus is the conditional write every transition goes
	// through: the update applies only while the ticket is still in the
	// expected state. false means the guard failed and nothing was mutated.
	UpdateFromStatus(ctx context.Context, id uuid.UUID, from Status, updates map[string]interface{}) (bool, error)

	// SetTokenIfUnset stores the entry token on a sold ticket that has no
	// token yet. The guard is part of the write so concurrent issuances
	// cannot both commit; false means a token already exists or the ticket
	// left the sold state.
	SetTokenIfUnset(ctx context.Context, id uuid.UUID, token string) (bool, error)

	// ReleaseIfLapsed resets a reserved ticket whose lease has elapsed.
	// Idempotent: a ticket already paid for or already released is a no-op.
	ReleaseIfLapsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// FindLapsedReservations returns reserved tickets whose lease elapsed,
	// for the sweep job.
	FindLapsedReservations(ctx context.Context, now time.Time, limit int) ([]Ticket, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBatch(ctx context.Context, tickets []Ticket) error {
	return r.db.WithContext(ctx).Create(&tickets).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("seat_number ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) FindByHolder(ctx context.Context, holder string) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("holder = ? AND status IN ?", holder, []Status{StatusReserved, StatusSold, StatusUsed}).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) UpdateFromStatus(ctx context.Context, id uuid.UUID, from Status, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetTokenIfUnset(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ? AND status = ? AND token IS NULL", id, StatusSold).
		Update("token", token)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ReleaseIfLapsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ? AND status = ? AND lease_expires_at <= ?", id, StatusReserved, now).
		Updates(map[string]interface{}{
			"status":           StatusAvailable,
			"holder":           nil,
			"lease_expires_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindLapsedReservations(ctx context.Context, now time.Time, limit int) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("status = ? AND lease_expires_at <= ?", StatusReserved, now).
		Limit(limit).
		Find(&tickets).Error
	return tickets, err
}
