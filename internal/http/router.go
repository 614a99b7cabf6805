package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/chairgo/internal/auth"
	"github.com/geocoder89/chairgo/internal/config"
	"github.com/geocoder89/chairgo/internal/domain/order"
	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/http/handlers"
	"github.com/geocoder89/chairgo/internal/http/middlewares"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/geocoder89/chairgo/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersStore is everything the routes need from the users table.
type UsersStore interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, username, email, passwordHash string, role user.Role) (int64, error)
	List(ctx context.Context, f user.ListFilter) ([]user.User, error)
	Count(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, id int64, role user.Role) (store.WriteResult, error)
	Delete(ctx context.Context, id int64) (store.WriteResult, error)
}

// ProductsStore is everything the routes need from the products table.
type ProductsStore interface {
	handlers.ProductsStore
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, n int) ([]product.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]product.Product, error)
	CategoryStats(ctx context.Context) ([]product.CategoryStat, error)
	CountFeatured(ctx context.Context) (int, error)
	CountOutOfStock(ctx context.Context) (int, error)
	BulkUpdate(ctx context.Context, ids []int64, p product.Patch) (store.WriteResult, error)
}

type OrdersStore interface {
	GetByNumber(ctx context.Context, number string) (order.Order, error)
}

type Deps struct {
	Users    UsersStore
	Products ProductsStore
	Orders   OrdersStore
	Tokens   *auth.Manager

	// Optional.
	Ping       func(ctx context.Context) error
	LimitStore middlewares.LimitStore
	Prom       *observability.Prom
	Registry   *prometheus.Registry
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "memory" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	var ping func() error
	if deps.Ping != nil {
		ping = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return deps.Ping(ctx)
		}
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// wire up handlers
	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Users, deps.Prom)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Users, deps.Tokens, deps.Prom)
	productsHandler := handlers.NewProductsHandler(deps.Products)
	adminHandler := handlers.NewAdminHandler(deps.Users, deps.Products)

	limitStore := deps.LimitStore
	if limitStore == nil {
		limitStore = middlewares.NewMemoryLimitStore()
	}
	loginLimiter := middlewares.NewRateLimiter(limitStore, "ratelimit:auth:", cfg.LoginRateLimit, time.Minute).
		OnDeny(func() { deps.Prom.ObserveLogin("rate_limited") })
	throttle := loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	authGroup := api.Group("/auth")
	authGroup.POST("/login", throttle, authHandler.Login)
	authGroup.POST("/register", throttle, authHandler.Register)
	authGroup.GET("/verify", authMW.RequireAuth(), authHandler.Verify)
	authGroup.POST("/logout", authHandler.Logout)

	// every admin route goes through the same gate
	gated := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(authMW.AdminOnly(), h)
	}

	products := api.Group("/products")
	products.GET("", productsHandler.List)
	products.GET("/:id", productsHandler.Get)
	products.POST("", gated(productsHandler.Create)...)
	products.PUT("/:id", gated(productsHandler.Update)...)
	products.DELETE("/:id", gated(productsHandler.Delete)...)

	admin := api.Group("/admin", authMW.AdminOnly()...)
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/products/stats", adminHandler.ProductStats)
	admin.POST("/products/bulk-update", adminHandler.BulkUpdateProducts)

	if deps.Orders != nil {
		ordersHandler := handlers.NewOrdersHandler(deps.Orders)
		api.GET("/orders/:orderNumber", ordersHandler.Track)
	}

	return r
}
