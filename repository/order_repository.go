package repository

import (
	"context"
	"errors"
	"time"

	"payment-gateway/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrOrderNotFound is returned by FindByID when no order exists for the id.
// Callers use it to tell a missing order apart from a storage failure.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	// FindByID returns ErrOrderNotFound when the id matches no order;
	// any other error is a storage failure.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetInvoiceID(ctx context.Context, id uuid.UUID, invoiceID string) error
	// CompleteIfPending moves the order to status=complete only if it is
	// still pending, as a single conditional UPDATE. Returns true when this
	// call performed the transition.
	CompleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)
	AppendNote(ctx context.Context, id uuid.UUID, note string) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) SetInvoiceID(ctx context.Context, id uuid.UUID, invoiceID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("invoice_id", invoiceID).Error
}

// CompleteIfPending is the compare-and-swap that keeps reconciliation
// race-safe: the status check and the status write are one statement, so two
// concurrent confirmations for the same order cannot both win.
func (r *GormOrderRepository) CompleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":       models.OrderStatusComplete,
			"completed_at": &now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormOrderRepository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("notes", gorm.Expr(
			"CASE WHEN COALESCE(notes, '') = '' THEN ? ELSE notes || E'\\n' || ? END", note, note,
		)).Error
}
