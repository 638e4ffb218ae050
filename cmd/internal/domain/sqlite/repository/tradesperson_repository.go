package repository

import (
	"errors"
	"strings"
	"tradebook/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultTradespersonRepository struct {
	db *gorm.DB
}

func NewTradespersonRepository(db *gorm.DB) *DefaultTradespersonRepository {
	return &DefaultTradespersonRepository{db: db}
}

func (t *DefaultTradespersonRepository) FindByID(id string) (*entity.Tradesperson, error) {
	var tp entity.Tradesperson
	err := t.db.First(&tp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &tp, err
}

// FindByTrade returns active tradespeople matching trade and city,
// best-rated first, id as tie-break. Trade and city are stored
// lowercased, so matching is case-insensitive.
func (t *DefaultTradespersonRepository) FindByTrade(trade, city string, minRating float64) ([]*entity.Tradesperson, error) {
	var tps []*entity.Tradesperson
	err := t.db.
		Where("trade = ?", strings.ToLower(trade)).
		Where("city = ?", strings.ToLower(city)).
		Where("active = ?", true).
		Where("rating >= ?", minRating).
		Order("rating desc, id asc").
		Find(&tps).Error
	return tps, err
}

func (t *DefaultTradespersonRepository) Save(tp *entity.Tradesperson) error {
	return t.db.Save(tp).Error
}
