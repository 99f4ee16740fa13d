package mocks

import (
	"context"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockShopRepository implements domain.ShopRepository for testing
type MockShopRepository struct {
	FindPrimaryFunc func(ctx context.Context) (*domain.Shop, error)
}

var _ domain.ShopRepository = (*MockShopRepository)(nil)

// NewMockShopRepository creates a MockShopRepository returning a primary shop by default
func NewMockShopRepository() *MockShopRepository {
	return &MockShopRepository{}
}

func (m *MockShopRepository) FindPrimary(ctx context.Context) (*domain.Shop, error) {
	if m.FindPrimaryFunc != nil {
		return m.FindPrimaryFunc(ctx)
	}
	// Default behavior: a primary shop exists
	return &domain.Shop{
		ID:           "shop-1",
		Name:         "Test Shop",
		ShopType:     "primary",
		Language:     "en",
		ContactEmail: "support@shop.test",
	}, nil
}
