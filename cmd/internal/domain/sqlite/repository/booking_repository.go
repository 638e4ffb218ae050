package repository

import (
	"errors"
	"tradebook/cmd/internal/domain"
	"tradebook/cmd/internal/domain/entity"
	"tradebook/cmd/internal/utils"

	"gorm.io/gorm"
)

type DefaultBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *DefaultBookingRepository {
	return &DefaultBookingRepository{db: db}
}

func (b *DefaultBookingRepository) FindByID(id string) (*entity.Booking, error) {
	var booking entity.Booking
	err := b.db.First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &booking, err
}

func (b *DefaultBookingRepository) FindAllConfirmed() ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := b.db.
		Where("status = ?", entity.BookingStatusConfirmed).
		Order("tradesperson_id asc, slot_start asc").
		Find(&bookings).Error
	return bookings, err
}

func (b *DefaultBookingRepository) FindLatestByCustomer(customerID string) (*entity.Booking, error) {
	var booking entity.Booking
	err := b.db.
		Where("customer_id = ?", customerID).
		Order("slot_start desc").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &booking, err
}

// CreateIfFree inserts the booking unless a confirmed booking already
// overlaps its slot. The overlap check and the insert run in one
// transaction; together with the per-tradesperson lock held by the
// service this keeps the no-double-booking invariant.
func (b *DefaultBookingRepository) CreateIfFree(booking *entity.Booking) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		count, err := countOverlapping(tx, booking.TradespersonID, booking.SlotStart, booking.SlotEnd, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrSlotTaken
		}
		return tx.Create(booking).Error
	})
}

// UpdateSlotIfFree moves the booking to [newStart, newEnd) unless the
// window is taken by another booking. On ErrSlotTaken the stored row is
// untouched.
func (b *DefaultBookingRepository) UpdateSlotIfFree(booking *entity.Booking, newStart, newEnd int64) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		count, err := countOverlapping(tx, booking.TradespersonID, newStart, newEnd, booking.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrSlotTaken
		}

		err = tx.Model(&entity.Booking{}).
			Where("id = ?", booking.ID).
			Updates(map[string]any{
				"slot_start": newStart,
				"slot_end":   newEnd,
				"updated_at": utils.NowUTC(),
			}).Error
		if err != nil {
			return err
		}

		booking.SlotStart = newStart
		booking.SlotEnd = newEnd
		return nil
	})
}

// Cancel flips the booking to CANCELLED. Callers release the schedule
// slot afterwards, under the same tradesperson lock.
func (b *DefaultBookingRepository) Cancel(booking *entity.Booking) error {
	now := utils.NowUTC()
	err := b.db.Model(&entity.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]any{
			"status":     entity.BookingStatusCancelled,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}

	booking.Status = entity.BookingStatusCancelled
	booking.UpdatedAt = now
	return nil
}

// Half-open interval intersection: [start, end) hits [slot_start, slot_end)
// iff slot_start < end and slot_end > start.
func countOverlapping(tx *gorm.DB, tradespersonID string, start, end int64, excludeID string) (int64, error) {
	q := tx.Model(&entity.Booking{}).
		Where("tradesperson_id = ?", tradespersonID).
		Where("status = ?", entity.BookingStatusConfirmed).
		Where("slot_start < ?", end).
		Where("slot_end > ?", start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}
