package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fadebook/fadebook/internal/auth"
	"github.com/fadebook/fadebook/internal/cache"
	"github.com/fadebook/fadebook/internal/config"
	"github.com/fadebook/fadebook/internal/domain/user"
	"github.com/fadebook/fadebook/internal/http/handlers"
	"github.com/fadebook/fadebook/internal/http/middlewares"
	"github.com/fadebook/fadebook/internal/observability"
	"github.com/fadebook/fadebook/internal/repo/postgres"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, prom *observability.Prom, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(otelgin.Middleware("fadebook-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health

	pingDB := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	pingCache := func() error {
		if rdb == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return cache.Ping(ctx, rdb)
	}

	health := handlers.NewHealthHandler(pingDB, pingCache)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if prom != nil {
		r.GET("/metrics", gin.WrapH(prom.Handler()))
	}

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	servicesRepo := postgres.NewServicesRepo(pool, prom)
	categoriesRepo := postgres.NewServiceCategoriesRepo(pool, prom)

	catalogCache := cache.NewCatalog(rdb, cfg.CatalogCacheTTL, prom)

	jwtManager := auth.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	session := middlewares.NewSessionMiddleware(jwtManager, usersRepo, cfg)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, cfg)
	servicesHandler := handlers.NewServicesHandler(servicesRepo, catalogCache)
	categoriesHandler := handlers.NewCategoriesHandler(categoriesRepo)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	api := r.Group("/api")

	// credential endpoints get a per-IP brute-force limit
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	authGroup.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	// logout runs after auth, so the limiter can key on the user id
	authGroup.POST("/logout", session.RequireAuth(), authLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), authHandler.Logout)

	services := api.Group("/services")
	services.GET("", servicesHandler.List)
	services.GET("/:id", servicesHandler.GetByID)
	services.POST("", session.RequireRole(user.RoleAdmin), servicesHandler.Create)
	services.PUT("/:id", session.RequireRole(user.RoleAdmin), servicesHandler.Update)
	services.DELETE("/:id", session.RequireRole(user.RoleAdmin), servicesHandler.Delete)

	categories := api.Group("/service-categories")
	categories.GET("", categoriesHandler.List)
	categories.GET("/:id", categoriesHandler.GetByID)
	categories.POST("", session.RequireRole(user.RoleAdmin), categoriesHandler.Create)

	return r
}
