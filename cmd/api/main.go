package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cupcake/internal/config"
	"cupcake/internal/domain/delivery"
	"cupcake/internal/handler"
	"cupcake/internal/infra/cep"
	"cupcake/internal/infra/db"
	infraRepo "cupcake/internal/infra/repository"
	"cupcake/internal/logging"
	"cupcake/internal/repository"
	"cupcake/internal/server"
	"cupcake/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.GoEnv)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続 + マイグレーション
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	if cfg.Seed {
		if err := db.Seed(ctx, gormDB); err != nil {
			return err
		}
		logger.Info("seed applied")
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	statsRepo := infraRepo.NewStatsGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//CEP（redisがあればキャッシュを挟む）
	var resolver repository.AddressResolver = cep.NewViaCEPClient(cfg.CEPBaseURL, cfg.CEPTimeout)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		resolver = cep.NewCachedResolver(resolver, rdb, logger)
	}

	checker := delivery.NewChecker(cfg.DeliveryRegions...)
	clock := usecase.SystemClock{}

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(
		txm, orderRepo, orderItemRepo, productRepo, couponRepo, cartRepo, resolver,
		checker, clock, logger,
		usecase.OrderOptions{IdempotencyWindow: cfg.IdempotencyWindow},
	)
	couponUC := usecase.NewCouponUsecase(couponRepo, txm, clock)
	addressUC := usecase.NewAddressUsecase(txm, addressRepo)
	deliveryUC := usecase.NewDeliveryUsecase(resolver, checker, logger)
	userUC := usecase.NewUserUsecase(userRepo)
	adminUC := usecase.NewAdminOrderUsecase(txm, orderRepo, orderItemRepo, userRepo, statsRepo, auditLogRepo, clock)

	//Handler生成
	e := server.New(cfg, logger, server.Handlers{
		Products:   handler.NewProductHandler(productUC),
		Cart:       handler.NewCartHandler(cartUC),
		Orders:     handler.NewOrderHandler(orderUC),
		Coupons:    handler.NewCouponHandler(couponUC),
		Addresses:  handler.NewAddressHandler(addressUC),
		Delivery:   handler.NewDeliveryHandler(deliveryUC),
		Users:      handler.NewUserHandler(userUC),
		AdminOrder: handler.NewAdminOrderHandler(adminUC, couponUC),
		UserSync:   userUC,
	})

	logger.Info("delivery regions", "regions", checker.Regions())
	return server.Start(ctx, e, ":"+cfg.Port, logger)
}
