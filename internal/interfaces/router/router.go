package router

import (
	"context"

	authsvc "kh-travel-backend/internal/application/auth"
	listsvc "kh-travel-backend/internal/application/listings"
	nearbysvc "kh-travel-backend/internal/application/nearby"
	progresssvc "kh-travel-backend/internal/application/progress"
	"kh-travel-backend/internal/application/ratelimit"
	reviewsvc "kh-travel-backend/internal/application/reviews"
	"kh-travel-backend/internal/config"
	"kh-travel-backend/internal/infrastructure/database"
	authhandler "kh-travel-backend/internal/interfaces/handlers/auth"
	healthhandler "kh-travel-backend/internal/interfaces/handlers/health"
	listhandler "kh-travel-backend/internal/interfaces/handlers/listings"
	nearbyhandler "kh-travel-backend/internal/interfaces/handlers/nearby"
	progresshandler "kh-travel-backend/internal/interfaces/handlers/progress"
	reviewhandler "kh-travel-backend/internal/interfaces/handlers/reviews"
	"kh-travel-backend/internal/middleware"
	"kh-travel-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
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

// Deps are the long-lived clients the app is built from. DB and Rdb may be
// nil; routes that need them are then not mounted.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Rdb    *redis.Client
}

// New builds the fiber app and mounts every route under /api/v1.
func New(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(d.Rdb),
		EnableTrustedProxyCheck: true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		BodyLimit:               1 << 20,
	})

	app.Use(recover.New())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
		AllowLocalhost: !cfg.IsProduction(),
	}))
	app.Use(middleware.HealthMarker(d.Rdb))

	sessions := &authsvc.RedisSessionProvider{Rdb: d.Rdb}
	providers := authsvc.ChainProvider{sessions}
	if cfg.JWTSecret != "" {
		providers = append(providers, &authsvc.TokenProvider{Secret: []byte(cfg.JWTSecret)})
	}
	app.Use(middleware.Session(providers))

	hh := &healthhandler.Handlers{Rdb: d.Rdb, HealthAdminKey: cfg.HealthAdminKey}
	if d.DB != nil {
		hh.DB = &gormDBPinger{db: d.DB}
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	api := app.Group("/api/v1")

	ah := &authhandler.Handlers{
		Sessions: sessions,
		Config: middleware.SessionConfig{
			AllowCrossSiteDev: cfg.AllowCrossSiteDev,
			IsProduction:      cfg.IsProduction(),
		},
	}
	api.Get("/auth/me", ah.Me)
	api.Delete("/auth/logout", ah.Logout)

	if d.DB == nil {
		return app
	}

	var nearbyLimit, writeLimit ratelimit.Limiter
	if d.Rdb != nil {
		nearbyLimit = &ratelimit.RedisSlidingWindow{Rdb: d.Rdb, Scope: "nearby", Requests: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}
		writeLimit = &ratelimit.RedisSlidingWindow{Rdb: d.Rdb, Scope: "write", Requests: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}
	}

	// Listings
	store := &listsvc.Service{DB: d.DB}
	lh := &listhandler.Handlers{Service: store}
	nh := &nearbyhandler.Handlers{Service: &nearbysvc.Service{Store: store}}
	rh := &reviewhandler.Handlers{Service: &reviewsvc.Service{DB: d.DB}}

	lg := api.Group("/listings")
	lg.Get("/", lh.List)
	lg.Get("/nearby", middleware.RateLimit(nearbyLimit, middleware.ByIP), nh.Nearby)
	lg.Get("/:slug", lh.Get)
	lg.Get("/:slug/reviews", rh.List)
	lg.Post("/:slug/reviews",
		middleware.RequireAuth(),
		middleware.AuthorizePermission(constants.WriteReview),
		middleware.RateLimit(writeLimit, middleware.ByUserOrIP),
		rh.Create)

	// Progress
	ph := &progresshandler.Handlers{Service: &progresssvc.Service{DB: d.DB, Listings: store}}
	ug := api.Group("/user", middleware.RequireAuth(), middleware.AuthorizePermission(constants.TrackProgress))
	ug.Post("/bookmark", middleware.RateLimit(writeLimit, middleware.ByUserOrIP), ph.Bookmark)
	ug.Post("/visited", middleware.RateLimit(writeLimit, middleware.ByUserOrIP), ph.Visited)
	ug.Get("/progress/:listingId", ph.Status)
	ug.Get("/lists", ph.Lists)
	ug.Get("/stats", ph.Stats)

	// Admin
	ag := api.Group("/admin", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageListings))
	ag.Post("/listings", lh.Create)
	ag.Put("/listings/:id", lh.Update)
	ag.Delete("/listings/:id", lh.Delete)

	return app
}

// CreateApp opens the database and Redis from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	return New(Deps{Config: cfg, DB: db, Rdb: rdb}), db, rdb, nil
}
