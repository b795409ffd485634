package httpapi

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/service/http/middleware"
)

// RouterOptions собирает зависимости REST-слоя.
type RouterOptions struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Orders   *OrderHandler
	Tokens   middleware.TokenVerifier
	Logger   *log.Entry
}

// NewRouter собирает gin-движок со всеми маршрутами сервиса.
// Чтение каталога и аутентификация публичны, запись каталога только
// для администраторов, заказы только для аутентифицированных.
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Logger != nil {
		router.Use(middleware.RequestLogger(opts.Logger))
	}
	router.Use(middleware.Metrics())

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", opts.Auth.Register)
		auth.POST("/login", opts.Auth.Login)
	}

	products := api.Group("/products")
	{
		products.GET("", opts.Products.List)
		products.GET("/:id", opts.Products.Get)

		admin := products.Group("")
		admin.Use(middleware.Auth(opts.Tokens), middleware.AdminOnly())
		{
			admin.POST("", opts.Products.Create)
			admin.PUT("/:id", opts.Products.Update)
			admin.DELETE("/:id", opts.Products.Delete)
		}
	}

	orders := api.Group("/orders")
	orders.Use(middleware.Auth(opts.Tokens))
	{
		orders.POST("", opts.Orders.Create)
		orders.GET("", opts.Orders.List)
		orders.GET("/:id", opts.Orders.Get)
		orders.PUT("/:id", opts.Orders.UpdateStatus)
	}

	return router
}
