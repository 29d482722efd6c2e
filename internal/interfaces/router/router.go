package router

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	authsvc "realty-backend/internal/application/auth"
	healthsvc "realty-backend/internal/application/health"
	"realty-backend/internal/application/minting"
	"realty-backend/internal/application/negotiation"
	"realty-backend/internal/application/properties"
	"realty-backend/internal/config"
	"realty-backend/internal/infrastructure/database"
	"realty-backend/internal/infrastructure/events"
	authhandler "realty-backend/internal/interfaces/handlers/auth"
	healthhandler "realty-backend/internal/interfaces/handlers/health"
	neghandler "realty-backend/internal/interfaces/handlers/negotiations"
	txhandler "realty-backend/internal/interfaces/handlers/transactions"
	"realty-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		hh.DB = &gormDBPinger{db: db}
		hh.Activity = &healthsvc.GormActivityCounter{DB: db}
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db == nil {
		log.Warn().Msg("DATABASE_URL not set; negotiation routes disabled")
		return app, db, rdb, nil
	}

	// Negotiations
	ns := negotiation.NewService(
		db,
		&properties.GormDirectory{DB: db},
		minting.NewMinter(cfg.PlatformFeeRate),
		events.NewRedisPublisher(rdb, cfg.EventsChannel),
		log.Logger,
	)
	nh := &neghandler.Handlers{Service: ns}
	ng := app.Group("/api/v1/negotiations", middleware.RequireAuth())
	ng.Post("/", nh.Create)
	ng.Get("/", nh.List)
	ng.Get("/:negotiation_id", nh.Get)
	ng.Post("/:negotiation_id/offers", nh.SubmitOffer)
	ng.Post("/:negotiation_id/cancel", nh.Cancel)
	ng.Get("/:negotiation_id/events", nh.Events)
	ng.Get("/:negotiation_id/transaction", nh.GetTransaction)
	ng.Post("/:negotiation_id/transaction", nh.MintTransaction)

	og := app.Group("/api/v1/offers", middleware.RequireAuth())
	og.Post("/:offer_id/respond", nh.Respond)

	// Transactions
	th := &txhandler.Handlers{
		Service:       ns,
		StripeCreator: &txhandler.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
	}
	tg := app.Group("/api/v1/transactions", middleware.RequireAuth())
	tg.Get("/:transaction_id", th.GetByID)
	tg.Post("/:transaction_id/payment-intent", th.CreatePaymentIntent)

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
