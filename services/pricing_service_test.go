package services_test

import (
	"context"
	"testing"

	"marketplace-backend/models"
	"marketplace-backend/repository"
	"marketplace-backend/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// --- Mock Product Repository ---

type mockProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (m *mockProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) error {
	p, ok := m.products[productID]
	if !ok || p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.SoldCount += quantity
	return nil
}

func (m *mockProductRepo) DecrementVariantStock(_ context.Context, variantID uuid.UUID, quantity int) error {
	for _, p := range m.products {
		for i := range p.Variants {
			if p.Variants[i].ID == variantID {
				if p.Variants[i].Stock < quantity {
					return repository.ErrInsufficientStock
				}
				p.Variants[i].Stock -= quantity
				p.Variants[i].SoldCount += quantity
				return nil
			}
		}
	}
	return repository.ErrInsufficientStock
}

// --- Helpers ---

func newPricingFixture(t *testing.T) (*mockProductRepo, *mockCouponRepo, services.PricingService) {
	t.Helper()
	products := newMockProductRepo()
	coupons := newMockCouponRepo()
	logger, _ := zap.NewDevelopment()
	couponSvc := services.NewCouponService(coupons, logger)
	return products, coupons, services.NewPricingService(products, couponSvc, logger)
}

func seedProduct(repo *mockProductRepo, name string, price float64, stock int) *models.Product {
	p := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		VendorID: uuid.New(),
	}
	repo.products[p.ID] = p
	return p
}

// --- Tests ---

func TestPricingService_PriceCart_Totals(t *testing.T) {
	products, _, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 40, 10)
	gadget := seedProduct(products, "Gadget", 20, 10)

	lines := []models.CartLine{
		{ProductID: widget.ID, Quantity: 2},
		{ProductID: gadget.ID, Quantity: 1},
	}

	priced, breakdown, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "")
	assert.Nil(t, svcErr)
	assert.Len(t, priced, 2)
	assert.Equal(t, 100.0, breakdown.Subtotal)
	assert.Equal(t, 0.0, breakdown.DiscountAmount)
	assert.Equal(t, services.ShippingFee, breakdown.ShippingFee)
	assert.Equal(t, 10.0, breakdown.TaxAmount, "tax on discounted subtotal")
	assert.Equal(t, 120.0, breakdown.Total)
}

func TestPricingService_PriceCart_WithCoupon(t *testing.T) {
	products, coupons, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 50, 10)
	_ = coupons.Create(context.Background(), activeCoupon("SAVE10", models.CouponTypePercentage, 10, 50))

	lines := []models.CartLine{{ProductID: widget.ID, Quantity: 2}}

	_, breakdown, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "SAVE10")
	assert.Nil(t, svcErr)
	assert.Equal(t, 100.0, breakdown.Subtotal)
	assert.Equal(t, 10.0, breakdown.DiscountAmount)
	assert.Equal(t, 9.0, breakdown.TaxAmount, "tax charged after discount")
	assert.Equal(t, 109.0, breakdown.Total)
}

func TestPricingService_PriceCart_SubCentDiscountBalances(t *testing.T) {
	products, coupons, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 10.10, 5)
	_ = coupons.Create(context.Background(), activeCoupon("PCT15", models.CouponTypePercentage, 15, 0))

	lines := []models.CartLine{{ProductID: widget.ID, Quantity: 1}}

	_, b, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "PCT15")
	assert.Nil(t, svcErr)
	assert.Equal(t, 1.52, b.DiscountAmount, "discount held at cent precision")
	assert.Equal(t, 0.86, b.TaxAmount)
	assert.Equal(t, 19.44, b.Total)
	assert.InDelta(t, b.Subtotal-b.DiscountAmount+b.ShippingFee+b.TaxAmount, b.Total, 1e-9,
		"stored breakdown sums to the charged total")
}

func TestPricingService_PriceCart_VendorScopedCouponLimitsDiscount(t *testing.T) {
	products, coupons, svc := newPricingFixture(t)

	shoes := seedProduct(products, "Shoes", 60, 10)
	hat := seedProduct(products, "Hat", 40, 10)

	c := activeCoupon("SHOES10", models.CouponTypePercentage, 10, 0)
	c.VendorID = &shoes.VendorID
	_ = coupons.Create(context.Background(), c)

	lines := []models.CartLine{
		{ProductID: shoes.ID, Quantity: 1},
		{ProductID: hat.ID, Quantity: 1},
	}

	_, b, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "SHOES10")
	assert.Nil(t, svcErr)
	assert.Equal(t, 100.0, b.Subtotal)
	assert.Equal(t, 6.0, b.DiscountAmount, "discount computed over the owning vendor's items only")
	assert.Equal(t, 9.4, b.TaxAmount)
	assert.Equal(t, 113.4, b.Total)
}

func TestPricingService_PriceCart_VendorScopedCouponNoMatchingItems(t *testing.T) {
	products, coupons, svc := newPricingFixture(t)

	hat := seedProduct(products, "Hat", 40, 10)

	otherVendor := uuid.New()
	c := activeCoupon("OTHER10", models.CouponTypePercentage, 10, 0)
	c.VendorID = &otherVendor
	_ = coupons.Create(context.Background(), c)

	lines := []models.CartLine{{ProductID: hat.ID, Quantity: 1}}

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "OTHER10")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "does not apply")
}

func TestPricingService_PriceCart_InvalidCouponRejects(t *testing.T) {
	products, coupons, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 10, 10)
	_ = coupons.Create(context.Background(), activeCoupon("MIN50", models.CouponTypePercentage, 10, 50))

	lines := []models.CartLine{{ProductID: widget.ID, Quantity: 1}}

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "MIN50")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "Minimum order")
}

func TestPricingService_PriceCart_VariantPriceWins(t *testing.T) {
	products, _, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 40, 0)
	variant := models.ProductVariant{
		ID:        uuid.New(),
		ProductID: widget.ID,
		SKU:       "WID-L",
		Name:      "Large",
		Price:     55,
		Stock:     3,
	}
	widget.Variants = []models.ProductVariant{variant}

	lines := []models.CartLine{{ProductID: widget.ID, VariantID: &variant.ID, Quantity: 2}}

	priced, breakdown, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "")
	assert.Nil(t, svcErr)
	assert.Equal(t, 55.0, priced[0].Price, "variant price is authoritative")
	assert.Equal(t, "Widget (Large)", priced[0].Name)
	assert.Equal(t, 110.0, breakdown.Subtotal)
}

func TestPricingService_PriceCart_VariantStockChecked(t *testing.T) {
	products, _, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 40, 100)
	variant := models.ProductVariant{ID: uuid.New(), ProductID: widget.ID, SKU: "WID-S", Price: 35, Stock: 1}
	widget.Variants = []models.ProductVariant{variant}

	lines := []models.CartLine{{ProductID: widget.ID, VariantID: &variant.ID, Quantity: 2}}

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "Insufficient stock")
}

func TestPricingService_PriceCart_InsufficientStock(t *testing.T) {
	products, _, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 40, 1)

	lines := []models.CartLine{{ProductID: widget.ID, Quantity: 5}}

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestPricingService_PriceCart_UnknownProduct(t *testing.T) {
	_, _, svc := newPricingFixture(t)

	lines := []models.CartLine{{ProductID: uuid.New(), Quantity: 1}}

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestPricingService_PriceCart_UnknownVariant(t *testing.T) {
	products, _, svc := newPricingFixture(t)

	widget := seedProduct(products, "Widget", 40, 10)
	ghost := uuid.New()

	lines := []models.CartLine{{ProductID: widget.ID, VariantID: &ghost, Quantity: 1}}

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), lines, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestPricingService_PriceCart_EmptyCart(t *testing.T) {
	_, _, svc := newPricingFixture(t)

	_, _, svcErr := svc.PriceCart(context.Background(), uuid.New(), nil, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}
