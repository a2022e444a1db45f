package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"zeen/internal/models"
)

var (
	// ErrPaymentNotFound is returned when a payment row does not exist.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrBookingNotFound is returned when a booking row does not exist.
	ErrBookingNotFound = errors.New("booking not found")
)

// PaymentTx is the transaction-scoped surface for payment completion.
// It embeds LedgerTx because completing an escrow payment writes the
// provider's ledger credit in the same database transaction.
type PaymentTx interface {
	LedgerTx
	UpdatePayment(p *models.Payment) error
	GetBooking(id uint) (*models.Booking, error)
	UpdateBooking(b *models.Booking) error
	InsertWebhookEvent(e *models.WebhookEvent) error
}

// PaymentRepository is the payment lifecycle's database access interface.
type PaymentRepository interface {
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByOrderID(orderID string) (*models.Payment, error)
	GetBooking(id uint) (*models.Booking, error)
	GetProvider(id uint) (*models.Provider, error)
	WebhookEventExists(gatewayName, eventID string) (bool, error)
	// ProcessingOlderThan lists payments stuck in processing, for the
	// reconciliation pass.
	ProcessingOlderThan(age time.Duration) ([]models.Payment, error)
	InTransaction(fn func(PaymentTx) error) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository returns the GORM-backed payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetBooking(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *paymentRepository) GetProvider(id uint) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &provider, nil
}

func (r *paymentRepository) WebhookEventExists(gatewayName, eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.WebhookEvent{}).
		Where("gateway = ? AND event_id = ?", gatewayName, eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *paymentRepository) ProcessingOlderThan(age time.Duration) ([]models.Payment, error) {
	var payments []models.Payment
	cutoff := time.Now().Add(-age)
	err := r.db.
		Where("status = ? AND updated_at < ?", models.PaymentProcessing, cutoff).
		Order("id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) InTransaction(fn func(PaymentTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (s *txStore) UpdatePayment(p *models.Payment) error {
	return s.db.Save(p).Error
}

func (s *txStore) GetBooking(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *txStore) UpdateBooking(b *models.Booking) error {
	return s.db.Save(b).Error
}

func (s *txStore) InsertWebhookEvent(e *models.WebhookEvent) error {
	return s.db.Create(e).Error
}
