package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/search"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/pkg/db"
	authmw "github.com/Skotchmaster/eshop/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/eshop/pkg/middleware/logging"
)

const webhookPath = "/webhook-checkout"

type Deps struct {
	DB     *gorm.DB
	Logger *slog.Logger

	Catalog *service.CatalogService
	Reviews *service.ReviewService
	Carts   *service.CartService
	Orders  *service.OrderService
	Auth    *service.AuthService
	Users   *service.UserService
	Search  search.Index

	BaseURL   string
	UploadDir string
	Now       func() time.Time

	Development bool
	BodyLimit   string
	CORSOrigins []string
	RateMax     int
	RateWindow  time.Duration
}

// allowedTo panics on roles outside the closed set so a typo fails at
// startup instead of locking a route.
func allowedTo(roles ...models.Role) echo.MiddlewareFunc {
	for _, r := range roles {
		if !r.Valid() {
			panic("unknown role " + string(r))
		}
	}
	return authmw.AllowedTo(func(u *models.User) models.Role { return u.Role }, roles...)
}

func (d *Deps) rateLimiter() echo.MiddlewareFunc {
	limit, window := d.RateMax, d.RateWindow
	if limit <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return apierror.New(http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
		},
	})
}

// NewServer builds the echo instance with the full middleware stack and every
// route registered.
func NewServer(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = transport.NewValidator()
	e.HTTPErrorHandler = ErrorHandler(d.Development)

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(logger),
		middleware.SecureWithConfig(middleware.SecureConfig{
			XSSProtection:         "0",
			ContentTypeNosniff:    "nosniff",
			XFrameOptions:         "SAMEORIGIN",
			HSTSMaxAge:            15552000,
			ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: https:; object-src 'none'",
			ReferrerPolicy:        "no-referrer",
		}),
		middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: d.CORSOrigins}),
		middleware.Gzip(),
	)
	if d.BodyLimit != "" {
		e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Limit: d.BodyLimit,
			Skipper: func(c echo.Context) bool {
				return isMultipart(c) || c.Request().URL.Path == webhookPath
			},
		}))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return apierror.Wrap(http.StatusServiceUnavailable, "database unavailable", err)
		}
		return c.NoContent(http.StatusOK)
	})

	orders := &OrderHTTP{Svc: d.Orders}
	e.POST(webhookPath, orders.Webhook)

	protect := authmw.Protect[*models.User](d.Auth.Authenticate)
	staff := allowedTo(models.RoleAdmin, models.RoleManager)
	adminOnly := allowedTo(models.RoleAdmin)
	userOnly := allowedTo(models.RoleUser)

	api := e.Group("/api", d.rateLimiter())
	v1 := api.Group("/v1")

	categories := d.categoryResource()
	subCategories := d.subCategoryResource()
	brands := d.brandResource()
	products := d.productResource()
	coupons := d.couponResource()
	reviews := d.reviewResource()

	g := v1.Group("/categories")
	g.GET("", categories.GetAll)
	g.POST("", categories.CreateOne, protect, staff)
	g.GET("/:id", categories.GetOne)
	g.PUT("/:id", categories.UpdateOne, protect, staff)
	g.DELETE("/:id", categories.DeleteOne, protect, adminOnly)
	g.GET("/:categoryId/subcategories", subCategories.GetAll)
	g.POST("/:categoryId/subcategories", subCategories.CreateOne, protect, staff)

	g = v1.Group("/subcategories")
	g.GET("", subCategories.GetAll)
	g.POST("", subCategories.CreateOne, protect, staff)
	g.GET("/:id", subCategories.GetOne)
	g.PUT("/:id", subCategories.UpdateOne, protect, staff)
	g.DELETE("/:id", subCategories.DeleteOne, protect, adminOnly)

	g = v1.Group("/brands")
	g.GET("", brands.GetAll)
	g.POST("", brands.CreateOne, protect, staff)
	g.GET("/:id", brands.GetOne)
	g.PUT("/:id", brands.UpdateOne, protect, staff)
	g.DELETE("/:id", brands.DeleteOne, protect, adminOnly)

	g = v1.Group("/products")
	g.GET("", products.GetAll)
	g.POST("", products.CreateOne, protect, staff)
	g.GET("/:id", products.GetOne)
	g.PUT("/:id", products.UpdateOne, protect, staff)
	g.DELETE("/:id", products.DeleteOne, protect, adminOnly)
	g.GET("/:productId/reviews", reviews.GetAll)
	g.POST("/:productId/reviews", reviews.CreateOne, protect, userOnly)

	g = v1.Group("/coupons", protect, staff)
	g.GET("", coupons.GetAll)
	g.POST("", coupons.CreateOne)
	g.GET("/:id", coupons.GetOne)
	g.PUT("/:id", coupons.UpdateOne)
	g.DELETE("/:id", coupons.DeleteOne)

	g = v1.Group("/reviews")
	g.GET("", reviews.GetAll)
	g.GET("/:id", reviews.GetOne)
	g.POST("", reviews.CreateOne, protect, userOnly)
	g.PUT("/:id", reviews.UpdateOne, protect, userOnly)
	g.DELETE("/:id", reviews.DeleteOne, protect, allowedTo(models.RoleUser, models.RoleManager, models.RoleAdmin))

	cart := &CartHTTP{Svc: d.Carts}
	g = v1.Group("/cart", protect, userOnly)
	g.POST("", cart.AddToCart)
	g.GET("", cart.GetCart)
	g.DELETE("", cart.ClearCart)
	g.PUT("/applyCoupon", cart.ApplyCoupon)
	g.PUT("/:itemId", cart.UpdateQuantity)
	g.DELETE("/:itemId", cart.RemoveItem)

	orderList := d.orderResource()
	g = v1.Group("/orders", protect)
	g.GET("", orderList.GetAll, allowedTo(models.RoleUser, models.RoleAdmin, models.RoleManager))
	g.GET("/:id", orderList.GetOne, allowedTo(models.RoleUser, models.RoleAdmin, models.RoleManager))
	g.POST("/:cartId", orders.CreateCashOrder, userOnly)
	g.GET("/checkout-session/:cartId", orders.CheckoutSession, userOnly)
	g.PUT("/:id/pay", orders.MarkPaid, staff)
	g.PUT("/:id/deliver", orders.MarkDelivered, staff)

	auth := &AuthHTTP{Svc: d.Auth}
	g = v1.Group("/auth")
	g.POST("/signup", auth.Signup)
	g.POST("/login", auth.Login)
	g.POST("/forgotPassword", auth.ForgotPassword)
	g.POST("/verifyResetCode", auth.VerifyResetCode)
	g.PUT("/resetPassword", auth.ResetPassword)

	users := &UserHTTP{Auth: d.Auth, Users: d.Users, Present: d.presentUser}
	userAdmin := d.userResource()
	g = v1.Group("/users", protect)
	g.GET("/getMe", users.GetMe)
	g.PUT("/changeMyPassword", users.ChangeMyPassword)
	g.PUT("/updateMe", users.UpdateMe)
	g.DELETE("/deleteMe", users.DeleteMe)
	g.POST("/requestActivation", users.RequestActivation)
	g.PATCH("/activateMe", users.ActivateMe)
	g.PUT("/changePassword/:id", users.ChangePassword, staff)
	g.GET("", userAdmin.GetAll, staff)
	g.POST("", userAdmin.CreateOne, staff)
	g.GET("/:id", userAdmin.GetOne, staff)
	g.PUT("/:id", userAdmin.UpdateOne, staff)
	g.DELETE("/:id", userAdmin.DeleteOne, staff)

	account := &AccountHTTP{Users: d.Users, Present: d.presentProduct}
	g = v1.Group("/wishlist", protect, userOnly)
	g.GET("", account.GetWishlist)
	g.POST("", account.AddToWishlist)
	g.DELETE("/:productId", account.RemoveFromWishlist)

	g = v1.Group("/addresses", protect, userOnly)
	g.GET("", account.GetAddresses)
	g.POST("", account.AddAddress)
	g.DELETE("/:addressId", account.RemoveAddress)
}
