package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/handlers"
	"github.com/vruksh/plantshop/internal/handlers/cart"
	"github.com/vruksh/plantshop/internal/handlers/order"
	"github.com/vruksh/plantshop/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	CategoryHandler *handlers.CategoryHandler
	CartHandler     *cart.CartHandler
	OrderHandler    *order.OrderHandler
	ServiceHandler  *token.TokenService
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/logout", d.AuthHandler.LogOut)

	api.GET("/search", d.SearchHandler.Search)

	api.GET("/products", d.ProductHandler.GetProducts)
	api.GET("/products/:id", d.ProductHandler.GetProduct)

	api.GET("/categories", d.CategoryHandler.GetCategories)
	api.GET("/categories/:id", d.CategoryHandler.GetCategory)

	admin := api.Group("", d.ServiceHandler.AutoRefreshMiddlewareAdmin)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PUT("/products/:id", d.ProductHandler.UpdateProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	admin.POST("/categories", d.CategoryHandler.CreateCategory)
	admin.PUT("/categories/:id", d.CategoryHandler.UpdateCategory)
	admin.DELETE("/categories/:id", d.CategoryHandler.DeleteCategory)

	admin.PUT("/orders/:id", d.OrderHandler.UpdateOrderStatus)

	carts := api.Group("/cart", d.ServiceHandler.AutoRefreshMiddleware)

	carts.GET("", d.CartHandler.GetCart)
	carts.POST("", d.CartHandler.AddToCart)
	carts.PUT("/:id", d.CartHandler.UpdateCartItem)
	carts.DELETE("/:id", d.CartHandler.RemoveFromCart)

	orders := api.Group("/orders", d.ServiceHandler.AutoRefreshMiddleware)

	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrderByID)
}
