package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"marketplace-backend/models"
	"marketplace-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Flat shipping fee and tax rate applied to every checkout. Tax is charged
// on the discounted subtotal.
const (
	ShippingFee = 10.0
	TaxRate     = 0.10
)

// PricingService is the single authority for cart totals. Checkout intent
// creation re-runs it; order materialization trusts the snapshot it
// produced. Client-submitted prices are never consulted.
type PricingService interface {
	PriceCart(ctx context.Context, userID uuid.UUID, lines []models.CartLine, couponCode string) ([]models.PricedLine, *models.PriceBreakdown, *ServiceError)
}

type pricingServiceImpl struct {
	products repository.ProductRepository
	coupons  CouponService
	logger   *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(products repository.ProductRepository, coupons CouponService, logger *zap.Logger) PricingService {
	return &pricingServiceImpl{products: products, coupons: coupons, logger: logger}
}

// PriceCart resolves the authoritative unit price for every line (variant
// price and stock when a variant is selected), validates stock, applies the
// coupon, and adds shipping and tax. Deterministic for a given catalog and
// coupon state.
func (s *pricingServiceImpl) PriceCart(ctx context.Context, userID uuid.UUID, lines []models.CartLine, couponCode string) ([]models.PricedLine, *models.PriceBreakdown, *ServiceError) {
	if len(lines) == 0 {
		return nil, nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	priced := make([]models.PricedLine, 0, len(lines))
	vendorSubtotals := make(map[uuid.UUID]float64)
	var subtotal float64

	for _, line := range lines {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, &ServiceError{StatusCode: 404, Message: fmt.Sprintf("Product %s not found", line.ProductID)}
			}
			s.logger.Error("Failed to fetch product", zap.String("product_id", line.ProductID.String()), zap.Error(err))
			return nil, nil, &ServiceError{StatusCode: 500, Message: "Failed to price cart"}
		}

		price := product.Price
		stock := product.Stock
		name := product.Name

		if line.VariantID != nil {
			variant := findVariant(product, *line.VariantID)
			if variant == nil {
				return nil, nil, &ServiceError{StatusCode: 404, Message: fmt.Sprintf("Variant %s not found for product %s", line.VariantID, product.ID)}
			}
			price = variant.Price
			stock = variant.Stock
			if variant.Name != "" {
				name = fmt.Sprintf("%s (%s)", product.Name, variant.Name)
			}
		}

		if stock < line.Quantity {
			return nil, nil, &ServiceError{StatusCode: 400, Message: fmt.Sprintf("Insufficient stock for %s", name)}
		}

		priced = append(priced, models.PricedLine{
			ProductID: product.ID,
			VariantID: line.VariantID,
			VendorID:  product.VendorID,
			Name:      name,
			Image:     product.Image,
			Price:     price,
			Quantity:  line.Quantity,
		})
		lineTotal := price * float64(line.Quantity)
		subtotal += lineTotal
		vendorSubtotals[product.VendorID] += lineTotal
	}

	subtotal = roundCents(subtotal)

	var discount float64
	if couponCode != "" {
		resp, svcErr := s.coupons.ValidateCoupon(ctx, couponCode, userID, subtotal, vendorSubtotals)
		if svcErr != nil {
			return nil, nil, svcErr
		}
		if !resp.Valid {
			return nil, nil, &ServiceError{StatusCode: 400, Message: resp.Message}
		}
		discount = resp.DiscountAmount
	}
	// Round the discount before it enters the arithmetic so the stored
	// breakdown sums exactly: Total = Subtotal - DiscountAmount + ShippingFee
	// + TaxAmount at cent precision.
	discount = roundCents(discount)
	if discount > subtotal {
		discount = subtotal
	}

	discounted := subtotal - discount
	tax := roundCents(discounted * TaxRate)
	breakdown := &models.PriceBreakdown{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		ShippingFee:    ShippingFee,
		TaxAmount:      tax,
		Total:          roundCents(subtotal - discount + ShippingFee + tax),
	}

	return priced, breakdown, nil
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

// roundCents keeps monetary values at cent precision.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
