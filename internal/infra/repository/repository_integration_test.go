package repository_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cupcake/internal/domain/delivery"
	"cupcake/internal/domain/model"
	"cupcake/internal/infra/db"
	infraRepo "cupcake/internal/infra/repository"
	repo "cupcake/internal/repository"
	"cupcake/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cupcake_test"),
		postgres.WithUsername("cupcake"),
		postgres.WithPassword("cupcake"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgC.Terminate(context.Background())
	})

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(ctx, gdb))
	// 2回目も落ちない
	require.NoError(t, db.Seed(ctx, gdb))
	return gdb
}

type fixedResolver struct{}

func (fixedResolver) Resolve(_ context.Context, cep string) (model.ResolvedAddress, error) {
	return model.ResolvedAddress{CEP: cep, City: "João Pessoa", State: "PB"}, nil
}

func createUser(t *testing.T, gdb *gorm.DB, id string) {
	t.Helper()
	_, err := infraRepo.NewUserGormRepository(gdb).Upsert(context.Background(), model.User{ID: id, Role: model.RoleUser})
	require.NoError(t, err)
}

func createProduct(t *testing.T, gdb *gorm.DB, price string) model.Product {
	t.Helper()
	p := model.Product{
		ID:          uuid.NewString(),
		Name:        "Cupcake " + price,
		Description: "test",
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

func createCoupon(t *testing.T, gdb *gorm.DB, code string, pct, maxUsage int) model.Coupon {
	t.Helper()
	c, err := infraRepo.NewCouponGormRepository(gdb).Create(context.Background(), model.Coupon{
		Code:               code,
		DiscountPercentage: pct,
		MaxUsage:           &maxUsage,
		IsActive:           true,
	})
	require.NoError(t, err)
	return c
}

func TestRepositories_Postgres(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()

	t.Run("coupon usage stops at limit", func(t *testing.T) {
		coupons := infraRepo.NewCouponGormRepository(gdb)
		c := createCoupon(t, gdb, "ONCE1", 10, 1)

		require.NoError(t, coupons.IncrementUsage(ctx, c.ID))
		err := coupons.IncrementUsage(ctx, c.ID)
		assert.ErrorIs(t, err, repo.ErrConflict)

		got, err := coupons.FindByCode(ctx, c.Code)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentUsage)
	})

	t.Run("cart upsert adds quantity", func(t *testing.T) {
		createUser(t, gdb, "cart-user")
		p := createProduct(t, gdb, "4.50")
		carts := infraRepo.NewCartGormRepository(gdb)

		_, err := carts.Upsert(ctx, "cart-user", p.ID, 2)
		require.NoError(t, err)
		item, err := carts.Upsert(ctx, "cart-user", p.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(5), item.Quantity)

		// 上限1000を超える加算はCHECK制約で弾かれる
		_, err = carts.Upsert(ctx, "cart-user", p.ID, 996)
		assert.ErrorIs(t, err, repo.ErrConflict)

		lines, err := carts.ListByUserID(ctx, "cart-user")
		require.NoError(t, err)
		require.Len(t, lines, 1)

		require.NoError(t, carts.ClearByUserID(ctx, "cart-user"))
		lines, err = carts.ListByUserID(ctx, "cart-user")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("idempotency key is unique per user", func(t *testing.T) {
		createUser(t, gdb, "idem-user")
		orders := infraRepo.NewOrderGormRepository(gdb)
		key := "key-" + uuid.NewString()

		newOrder := func() model.Order {
			return model.Order{
				UserID:          "idem-user",
				Status:          model.OrderStatusPending,
				Total:           decimal.RequireFromString("9.90"),
				DeliveryAddress: "Rua A, 58000-000",
				PaymentMethod:   model.PaymentOnDelivery,
				IdempotencyKey:  &key,
			}
		}

		first, err := orders.Create(ctx, newOrder())
		require.NoError(t, err)
		_, err = orders.Create(ctx, newOrder())
		assert.ErrorIs(t, err, repo.ErrConflict)

		found, ok, err := orders.FindByIdempotencyKey(ctx, "idem-user", key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first.ID, found.ID)

		_, ok, err = orders.FindByIdempotencyKey(ctx, "idem-user", "other")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("status changes only from expected status", func(t *testing.T) {
		createUser(t, gdb, "status-user")
		orders := infraRepo.NewOrderGormRepository(gdb)
		o, err := orders.Create(ctx, model.Order{
			UserID:          "status-user",
			Status:          model.OrderStatusPending,
			Total:           decimal.RequireFromString("9.90"),
			DeliveryAddress: "Rua A, 58000-000",
			PaymentMethod:   model.PaymentOnDelivery,
		})
		require.NoError(t, err)

		ok, err := orders.UpdateStatusFrom(ctx, o.ID, model.OrderStatusCancelled, model.OrderStatusPending, model.OrderStatusConfirmed)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = orders.UpdateStatusFrom(ctx, o.ID, model.OrderStatusCancelled, model.OrderStatusPending, model.OrderStatusConfirmed)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("forced status change shows up in audit trail", func(t *testing.T) {
		createUser(t, gdb, "audit-user")
		orders := infraRepo.NewOrderGormRepository(gdb)
		o, err := orders.Create(ctx, model.Order{
			UserID:          "audit-user",
			Status:          model.OrderStatusDelivered,
			Total:           decimal.RequireFromString("9.90"),
			DeliveryAddress: "Rua A, 58000-000",
			PaymentMethod:   model.PaymentOnDelivery,
		})
		require.NoError(t, err)

		uc := usecase.NewAdminOrderUsecase(
			infraRepo.NewTxManagerGorm(gdb),
			orders,
			infraRepo.NewOrderItemGormRepository(gdb),
			infraRepo.NewUserGormRepository(gdb),
			infraRepo.NewStatsGormRepository(gdb),
			infraRepo.NewAuditLogGormRepository(gdb),
			usecase.SystemClock{},
		)
		_, err = uc.UpdateStatus(ctx, "admin", o.ID, usecase.AdminUpdateOrderStatusInput{Status: "pending", Force: true})
		require.NoError(t, err)

		entries, err := uc.OrderAudit(ctx, o.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, string(model.AuditActionForceOrderStatus), entries[0].Action)
		assert.JSONEq(t, `{"status":"pending","forced":true}`, string(entries[0].After))
	})

	t.Run("only one default address", func(t *testing.T) {
		createUser(t, gdb, "addr-user")
		addresses := infraRepo.NewAddressGormRepository(gdb)
		newAddr := func(name string, isDefault bool) model.Address {
			a, err := addresses.Create(ctx, model.Address{
				UserID: "addr-user", Name: name, CEP: "58000000", Street: "Rua A", Number: "1",
				Neighborhood: "Centro", City: "João Pessoa", State: "PB", IsDefault: isDefault,
			})
			require.NoError(t, err)
			return a
		}
		home := newAddr("Casa", true)
		work := newAddr("Trabalho", false)

		err := addresses.MarkDefault(ctx, "addr-user", work.ID)
		assert.ErrorIs(t, err, repo.ErrConflict)

		txm := infraRepo.NewTxManagerGorm(gdb)
		require.NoError(t, txm.WithinTx(ctx, func(r repo.TxRepos) error {
			if err := r.Addresses().ClearDefault(ctx, "addr-user"); err != nil {
				return err
			}
			return r.Addresses().MarkDefault(ctx, "addr-user", work.ID)
		}))

		got, err := addresses.FindByUserAndID(ctx, "addr-user", home.ID)
		require.NoError(t, err)
		assert.False(t, got.IsDefault)
		got, err = addresses.FindByUserAndID(ctx, "addr-user", work.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDefault)
	})
}

// 残り1回のクーポンを同時に使うと1件だけ通る
func TestPlaceOrder_ConcurrentLastCouponUse_Postgres(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()

	createUser(t, gdb, "buyer-1")
	createUser(t, gdb, "buyer-2")
	p := createProduct(t, gdb, "9.90")
	c := createCoupon(t, gdb, "LAST1", 10, 1)

	orders := infraRepo.NewOrderGormRepository(gdb)
	coupons := infraRepo.NewCouponGormRepository(gdb)
	uc := usecase.NewOrderUsecase(
		infraRepo.NewTxManagerGorm(gdb),
		orders,
		infraRepo.NewOrderItemGormRepository(gdb),
		infraRepo.NewProductGormRepository(gdb),
		coupons,
		infraRepo.NewCartGormRepository(gdb),
		fixedResolver{},
		delivery.NewChecker(),
		usecase.SystemClock{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		usecase.OrderOptions{},
	)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []string{"buyer-1", "buyer-2"} {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = uc.PlaceOrder(ctx, userID, usecase.PlaceOrderInput{
				DeliveryAddress: "Rua das Trincheiras, 100 - Centro, João Pessoa - PB, 58000-000",
				Items:           []usecase.PlaceOrderItem{{ProductID: p.ID, Quantity: 1}},
				CouponCode:      "last1",
			})
		}(i, userID)
	}
	wg.Wait()

	var okCount, rejected int
	for _, err := range errs {
		if err == nil {
			okCount++
			continue
		}
		he, ok := usecase.AsHTTPError(err)
		require.True(t, ok, err)
		assert.Equal(t, usecase.KindInvalidCoupon, he.Kind)
		rejected++
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, rejected)

	got, err := coupons.FindByCode(ctx, c.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentUsage)

	var count int64
	require.NoError(t, gdb.Model(&model.Order{}).Where("applied_coupon_code = ?", "LAST1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
