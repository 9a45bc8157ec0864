package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeline/internal/cart"
	"lifeline/internal/config"
	"lifeline/internal/handler"
	infraAuth "lifeline/internal/infra/auth"
	"lifeline/internal/infra/db"
	infraRepo "lifeline/internal/infra/repository"
	"lifeline/internal/logging"
	"lifeline/internal/payment"
	"lifeline/internal/repository"
	"lifeline/internal/server"
	"lifeline/internal/usecase"
	auth "lifeline/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// loggerがまだ無い
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Error("db connect failed", zap.Error(err))
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Error("db migrate failed", zap.Error(err))
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	var slotRepo repository.CartSlotRepository = infraRepo.NewCartSlotGormRepository(gormDB)
	if cfg.StorageDriver == config.StorageDriverMemory {
		slotRepo = infraRepo.NewCartSlotMemoryRepository()
	}

	//カートセッション。書き込みはバックグラウンドでまとめる
	writer := cart.NewAsyncWriter(logger.Named("cart"))
	sessions := cart.NewRegistry(func(key string) cart.Persister {
		return writer.Persister(cart.NewSlot(slotRepo, key, logger.Named("cart")))
	}, cfg.CartSessionIdleTTL)
	go sessions.Run(ctx, cfg.CartSweepInterval, func(removed int) {
		logger.Debug("cart sessions swept", zap.Int("removed", removed), zap.Int("live", sessions.Len()))
	})

	clock := &realClock{}

	//bcrypt / JWT
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer, err := infraAuth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("jwt issuer", zap.Error(err))
		return err
	}

	//管理者の初期作成
	if cfg.AdminEmail != "" {
		created, err := auth.NewEnsureAdminUsecase(userRepo, hasher, clock).Execute(ctx, auth.EnsureAdminInput{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			logger.Error("bootstrap admin failed", zap.Error(err))
			return err
		}
		if created {
			logger.Info("admin user created", zap.String("email", cfg.AdminEmail))
		}
	}

	gateway := payment.NewStubGateway(cfg.PaymentPublicKey, logger.Named("payment"))

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, auditRepo, logger)
	cartUC := usecase.NewCartUsecase(sessions, productRepo)
	checkoutUC := usecase.NewCheckoutUsecase(sessions, productRepo, txm, gateway, logger.Named("checkout"))
	adminOrderUC := usecase.NewAdminOrderUsecase(txm)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	logoutUC := auth.NewLogoutUsecase(userRepo, auditRepo, clock)

	//Handler生成
	e := server.New(cfg, logger, server.Handlers{
		Auth:         handler.NewAuthHandler(loginUC, logoutUC, cfg.CookieSecure, logger),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, auditUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, auditUC),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		UserRepo:     userRepo,
	})

	//Server起動
	serveErr := server.Start(ctx, e, cfg, logger)
	if serveErr != nil {
		logger.Error("server stopped", zap.Error(serveErr))
	}

	//残ったカートの書き込みを流す
	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := writer.Close(flushCtx); err != nil {
		logger.Warn("cart flush incomplete", zap.Error(err))
	}

	logger.Info("bye")
	return serveErr
}
