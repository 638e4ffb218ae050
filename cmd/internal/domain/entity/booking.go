package entity

const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

type Booking struct {
	ID             string `gorm:"primaryKey"`
	CustomerID     string `gorm:"not null;index"` // References: customers(id)
	TradespersonID string `gorm:"not null;index:idx_tp_slot"`
	SlotStart      int64  `gorm:"not null;index:idx_tp_slot"`
	SlotEnd        int64  `gorm:"not null"`
	Status         string `gorm:"not null"`
	CreatedAt      int64  `gorm:"not null"`
	UpdatedAt      int64  `gorm:"not null"`
	Description    *string

	// Relations
	Customer     Customer     `gorm:"foreignKey:CustomerID;references:ID"`
	Tradesperson Tradesperson `gorm:"foreignKey:TradespersonID;references:ID"`
}
