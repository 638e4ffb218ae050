package repository

import (
	"errors"
	"tradebook/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultCustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *DefaultCustomerRepository {
	return &DefaultCustomerRepository{db: db}
}

func (c *DefaultCustomerRepository) FindByID(id string) (*entity.Customer, error) {
	var customer entity.Customer
	err := c.db.First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (c *DefaultCustomerRepository) Save(customer *entity.Customer) error {
	return c.db.Save(customer).Error
}
