package entity

// Customer identifiers are the caller's phone number when the booking
// comes in through the voice bridge, or a generated UUID otherwise.
type Customer struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	City      string `gorm:"not null"`
	CreatedAt int64  `gorm:"not null"`
	UpdatedAt int64  `gorm:"not null"`
}
