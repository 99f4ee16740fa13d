package repositories

import (
	"context"
	"errors"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"gorm.io/gorm"
)

// PrimaryShopType marks the shop whose branding is used for account emails
const PrimaryShopType = "primary"

// DBShop represents the shop table. This service only reads it.
type DBShop struct {
	ID                string `gorm:"primaryKey;size:36"`
	Name              string
	ShopType          string `gorm:"index;size:32"`
	Language          string `gorm:"size:16"`
	ContactEmail      string
	StorefrontHomeURL string
	Company           string
	Address1          string
	Address2          string
	City              string
	Region            string
	Postal            string `gorm:"size:32"`
}

// TableName returns the table name for GORM
func (DBShop) TableName() string {
	return "shops"
}

// ShopRepositoryImpl implements domain.ShopRepository using GORM
type ShopRepositoryImpl struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *gorm.DB) domain.ShopRepository {
	return &ShopRepositoryImpl{db: db}
}

// FindPrimary implements domain.ShopRepository
func (r *ShopRepositoryImpl) FindPrimary(ctx context.Context) (*domain.Shop, error) {
	var dbShop DBShop
	err := r.db.WithContext(ctx).Where("shop_type = ?", PrimaryShopType).First(&dbShop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShopNotFound
		}
		return nil, err
	}

	return &domain.Shop{
		ID:                dbShop.ID,
		Name:              dbShop.Name,
		ShopType:          dbShop.ShopType,
		Language:          dbShop.Language,
		ContactEmail:      dbShop.ContactEmail,
		StorefrontHomeURL: dbShop.StorefrontHomeURL,
		Address: domain.Address{
			Company:  dbShop.Company,
			Address1: dbShop.Address1,
			Address2: dbShop.Address2,
			City:     dbShop.City,
			Region:   dbShop.Region,
			Postal:   dbShop.Postal,
		},
	}, nil
}
