package router

import (
	"ravello/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	clients := api.Group("/clients")
	clients.POST("", handler.Register)
	clients.PUT("", handler.UpdateProfile, authRequired)

	auth := api.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/logout", handler.Logout, authRequired)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)

	api.POST("/verify-otp", handler.VerifyOTP)
}

func SetupStoreRoutes(api *echo.Group, handler *rest.StoreHandler, ordersHandler *rest.OrdersHandler, authRequired, storeOwner echo.MiddlewareFunc) {
	stores := api.Group("/stores", authRequired)

	stores.GET("/profile", handler.GetProfile)
	stores.POST("", handler.CreateStore)
	stores.PUT("", handler.UpdateStore, storeOwner)
	stores.GET("/report", handler.Report, storeOwner)
	stores.PUT("/orders/:order_id/status", ordersHandler.UpdateStatus, storeOwner)
}

func SetupCategoryRoutes(api *echo.Group, handler *rest.CategoryHandler, authRequired echo.MiddlewareFunc) {
	categories := api.Group("/categories")

	categories.GET("", handler.GetAllCategories)
	categories.POST("", handler.CreateCategory, authRequired)
}

func SetupProductRoutes(api *echo.Group, handler *rest.ProductHandler, authRequired, storeOwner echo.MiddlewareFunc) {
	products := api.Group("/products")

	products.GET("", handler.GetAllProducts)
	products.GET("/:id", handler.GetProductByID)
	products.POST("", handler.CreateProduct, authRequired, storeOwner)
}

func SetupCartRoutes(api *echo.Group, handler *rest.CartHandler, authRequired echo.MiddlewareFunc) {
	cart := api.Group("/cart", authRequired)

	cart.POST("", handler.AddToCart)
	cart.GET("", handler.ListCart)
	cart.GET("/summary", handler.CartSummary)
	cart.DELETE("/:cart_id", handler.RemoveFromCart)
}

func SetOrdersRoutes(api *echo.Group, ordersHandler *rest.OrdersHandler, authRequired echo.MiddlewareFunc) {
	api.POST("/orders", ordersHandler.PlaceOrder, authRequired)

	details := api.Group("/order-details", authRequired)
	details.GET("", ordersHandler.ListOrderDetails)
	details.POST("/preview", ordersHandler.PreviewPrice)
}

func SetPaymentsRoutes(api *echo.Group, paymentsHandler *rest.PaymentsHandler, authRequired echo.MiddlewareFunc) {
	payments := api.Group("/payments", authRequired)
	payments.POST("/confirm", paymentsHandler.ConfirmPayment)
}
