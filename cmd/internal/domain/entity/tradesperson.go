package entity

type Tradesperson struct {
	ID            string  `gorm:"primaryKey"`
	Name          string  `gorm:"not null"`
	Trade         string  `gorm:"not null;index:idx_trade_city"`
	City          string  `gorm:"not null;index:idx_trade_city"`
	Rating        float64 `gorm:"not null"`
	HourlyRate    float64
	ContactNumber string
	Active        bool  `gorm:"not null"`
	CreatedAt     int64 `gorm:"not null"`
	UpdatedAt     int64 `gorm:"not null"`
}
