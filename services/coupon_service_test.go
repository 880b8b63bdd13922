package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"marketplace-backend/models"
	"marketplace-backend/repository"
	"marketplace-backend/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// --- Mock Repository ---

type redemptionKey struct {
	couponID uuid.UUID
	userID   uuid.UUID
}

type mockCouponRepo struct {
	coupons     map[string]*models.Coupon
	redemptions map[redemptionKey]int
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{
		coupons:     make(map[string]*models.Coupon),
		redemptions: make(map[redemptionKey]int),
	}
}

func (m *mockCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	if _, ok := m.coupons[c.Code]; ok {
		return repository.ErrDuplicateKey
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.coupons[c.Code] = c
	return nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok || !c.Active {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) UserRedemptionCount(_ context.Context, couponID, userID uuid.UUID) (int, error) {
	return m.redemptions[redemptionKey{couponID, userID}], nil
}

func (m *mockCouponRepo) Redeem(_ context.Context, couponID, userID uuid.UUID, perUserLimit int) error {
	key := redemptionKey{couponID, userID}
	if perUserLimit > 0 && m.redemptions[key] >= perUserLimit {
		return repository.ErrUserLimitReached
	}
	for _, c := range m.coupons {
		if c.ID == couponID {
			if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
				return repository.ErrUsageLimitReached
			}
			c.UsedCount++
			m.redemptions[key]++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockCouponRepo) Deactivate(_ context.Context, code string) error {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return repository.ErrNotFound
	}
	c.Active = false
	return nil
}

func (m *mockCouponRepo) FindAll(_ context.Context, _, _ int) ([]models.Coupon, int64, error) {
	var result []models.Coupon
	for _, c := range m.coupons {
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

// --- Helpers ---

func newCouponService(repo repository.CouponRepository) services.CouponService {
	logger, _ := zap.NewDevelopment()
	return services.NewCouponService(repo, logger)
}

func activeCoupon(code string, couponType models.CouponType, value, minOrder float64) *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          code,
		Type:          couponType,
		Value:         value,
		MinOrderValue: minOrder,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(24 * time.Hour),
		Active:        true,
	}
}

// --- Tests ---

func TestCouponService_CreateCoupon_Success(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	req := &models.CreateCouponRequest{
		Code:       "save10",
		Type:       models.CouponTypePercentage,
		Value:      10,
		ValidUntil: time.Now().Add(24 * time.Hour),
		UsageLimit: 100,
	}

	coupon, svcErr := svc.CreateCoupon(context.Background(), req)
	assert.Nil(t, svcErr)
	assert.NotNil(t, coupon)
	assert.Equal(t, "SAVE10", coupon.Code, "code is uppercased")
	assert.True(t, coupon.Active)
}

func TestCouponService_CreateCoupon_ExpiredDate(t *testing.T) {
	svc := newCouponService(newMockCouponRepo())

	req := &models.CreateCouponRequest{
		Code:       "OLD",
		Type:       models.CouponTypeFixed,
		Value:      5,
		ValidUntil: time.Now().Add(-1 * time.Hour),
	}

	_, svcErr := svc.CreateCoupon(context.Background(), req)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCouponService_CreateCoupon_PercentageOver100(t *testing.T) {
	svc := newCouponService(newMockCouponRepo())

	req := &models.CreateCouponRequest{
		Code:       "TOOMUCH",
		Type:       models.CouponTypePercentage,
		Value:      150,
		ValidUntil: time.Now().Add(24 * time.Hour),
	}

	_, svcErr := svc.CreateCoupon(context.Background(), req)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCouponService_CreateCoupon_DuplicateCode(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	req := &models.CreateCouponRequest{
		Code:       "TWICE",
		Type:       models.CouponTypeFixed,
		Value:      5,
		ValidUntil: time.Now().Add(24 * time.Hour),
	}

	_, svcErr := svc.CreateCoupon(context.Background(), req)
	assert.Nil(t, svcErr)

	_, svcErr = svc.CreateCoupon(context.Background(), req)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
}

func TestCouponService_ValidateCoupon_Percentage(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("SAVE10", models.CouponTypePercentage, 10, 50)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "SAVE10", uuid.New(), 100, nil)
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 10.0, resp.DiscountAmount)
}

func TestCouponService_ValidateCoupon_MaxDiscountCap(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("BIGPCT", models.CouponTypePercentage, 50, 0)
	coupon.MaxDiscount = 25
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "BIGPCT", uuid.New(), 200, nil)
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 25.0, resp.DiscountAmount, "percentage discount capped at max_discount")
}

func TestCouponService_ValidateCoupon_FixedClampedAtSubtotal(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("BIGFIX", models.CouponTypeFixed, 200, 0)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "BIGFIX", uuid.New(), 50, nil)
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 50.0, resp.DiscountAmount, "fixed discount never exceeds subtotal")
}

func TestCouponService_ValidateCoupon_MinOrderNotMet(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("MINVAL", models.CouponTypePercentage, 10, 100)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "MINVAL", uuid.New(), 50, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "Minimum order")
}

func TestCouponService_ValidateCoupon_Expired(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("EXPIRED", models.CouponTypeFixed, 10, 0)
	coupon.ValidUntil = time.Now().Add(-1 * time.Hour)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "EXPIRED", uuid.New(), 50, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "expired")
}

func TestCouponService_ValidateCoupon_NotYetValid(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("FUTURE", models.CouponTypeFixed, 10, 0)
	coupon.ValidFrom = time.Now().Add(time.Hour)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "FUTURE", uuid.New(), 50, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "not yet valid")
}

func TestCouponService_ValidateCoupon_UsageLimitReached(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("LIMITED", models.CouponTypePercentage, 5, 0)
	coupon.UsageLimit = 10
	coupon.UsedCount = 10
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "LIMITED", uuid.New(), 100, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "usage limit")
}

func TestCouponService_ValidateCoupon_PerUserLimitReached(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("ONEEACH", models.CouponTypeFixed, 5, 0)
	coupon.UsageLimitPerUser = 1
	_ = repo.Create(context.Background(), coupon)

	userID := uuid.New()
	repo.redemptions[redemptionKey{coupon.ID, userID}] = 1

	resp, svcErr := svc.ValidateCoupon(context.Background(), "ONEEACH", userID, 100, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "this user")

	// Another user is unaffected.
	resp, svcErr = svc.ValidateCoupon(context.Background(), "ONEEACH", uuid.New(), 100, nil)
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
}

func TestCouponService_ValidateCoupon_NotFound(t *testing.T) {
	svc := newCouponService(newMockCouponRepo())

	resp, svcErr := svc.ValidateCoupon(context.Background(), "GHOST", uuid.New(), 100, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "not found")
}

func TestCouponService_ValidateCoupon_VendorScopeClampsToShare(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	vendorID := uuid.New()
	coupon := activeCoupon("VENDFIX", models.CouponTypeFixed, 50, 0)
	coupon.VendorID = &vendorID
	_ = repo.Create(context.Background(), coupon)

	shares := map[uuid.UUID]float64{vendorID: 30, uuid.New(): 170}
	resp, svcErr := svc.ValidateCoupon(context.Background(), "VENDFIX", uuid.New(), 200, shares)
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 30.0, resp.DiscountAmount, "fixed discount clamped to the owning vendor's share")
}

func TestCouponService_ValidateCoupon_VendorScopeNoMatchingItems(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	vendorID := uuid.New()
	coupon := activeCoupon("VENDPCT", models.CouponTypePercentage, 10, 0)
	coupon.VendorID = &vendorID
	_ = repo.Create(context.Background(), coupon)

	shares := map[uuid.UUID]float64{uuid.New(): 200}
	resp, svcErr := svc.ValidateCoupon(context.Background(), "VENDPCT", uuid.New(), 200, shares)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "does not apply")
}

func TestCouponService_ValidateCoupon_VendorScopeMinOrder(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	vendorID := uuid.New()
	coupon := activeCoupon("VENDMIN", models.CouponTypePercentage, 10, 50)
	coupon.VendorID = &vendorID
	_ = repo.Create(context.Background(), coupon)

	// The cart clears the minimum overall, but the owning vendor's share
	// does not.
	shares := map[uuid.UUID]float64{vendorID: 40, uuid.New(): 160}
	resp, svcErr := svc.ValidateCoupon(context.Background(), "VENDMIN", uuid.New(), 200, shares)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "Minimum order")
}

func TestCouponService_RedeemCoupon_PerUserLimit(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("ONEEACH", models.CouponTypeFixed, 5, 0)
	coupon.UsageLimitPerUser = 1
	_ = repo.Create(context.Background(), coupon)

	userID := uuid.New()
	err := svc.RedeemCoupon(context.Background(), "ONEEACH", userID)
	assert.NoError(t, err)

	err = svc.RedeemCoupon(context.Background(), "ONEEACH", userID)
	assert.ErrorIs(t, err, repository.ErrUserLimitReached)
	assert.Equal(t, 1, coupon.UsedCount, "failed redemption does not consume global quota")
}

func TestCouponService_DeactivateCoupon(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newCouponService(repo)

	coupon := activeCoupon("TODEACT", models.CouponTypeFixed, 5, 0)
	_ = repo.Create(context.Background(), coupon)

	svcErr := svc.DeactivateCoupon(context.Background(), "TODEACT")
	assert.Nil(t, svcErr)

	resp, svcErr := svc.ValidateCoupon(context.Background(), "TODEACT", uuid.New(), 100, nil)
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
}

func TestCouponService_DeactivateCoupon_NotFound(t *testing.T) {
	svc := newCouponService(newMockCouponRepo())

	svcErr := svc.DeactivateCoupon(context.Background(), "GHOST")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}
