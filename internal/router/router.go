package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lfk/lfk-backend/config"
	"github.com/lfk/lfk-backend/internal/app/controller"
	"github.com/lfk/lfk-backend/internal/app/model"
	apperrors "github.com/lfk/lfk-backend/internal/errors"
	"github.com/lfk/lfk-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authController *controller.AuthController
	cartController *controller.CartController
	authMiddleware *middleware.AuthMiddleware
	gatherer       prometheus.Gatherer
	config         *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	cartController *controller.CartController,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		authController: authController,
		cartController: cartController,
		authMiddleware: authMiddleware,
		gatherer:       gatherer,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	apperrors.RegisterJSONFieldNames()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "LFK API is running",
		})
	})
	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(model.RoleParent, model.RoleAdmin))
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.GET("/membership", r.cartController.GetMembershipCart)
			cart.GET("/children", r.cartController.GetChildren)
			cart.GET("/validate", r.cartController.Validate)

			cart.POST("/items", r.cartController.AddClass)
			cart.DELETE("/items/:rowId", r.cartController.RemoveItem)
			cart.PUT("/items/:rowId/children", r.cartController.UpdateChildren)
			cart.POST("/items/:rowId/coupon", r.cartController.ApplyCoupon)
			cart.DELETE("/items/:rowId/coupon", r.cartController.RemoveCoupon)

			cart.POST("/memberships", r.cartController.AddMembership)

			cart.POST("/donations", r.cartController.AddDonation)
			cart.PUT("/donations/:rowId", r.cartController.UpdateDonation)

			cart.POST("/autoenroll", r.cartController.SetAutoEnroll)

			cart.GET("/password/:classId", r.cartController.PasswordPrompt)
			cart.POST("/password/:classId", r.cartController.ConfirmPassword)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
