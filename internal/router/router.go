package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"pizzaproblem/internal/auth"
	"pizzaproblem/internal/handler"
	"pizzaproblem/internal/repository"
)

// Register wires routes and middleware. Identity resolution runs once for
// the whole /api group; RequireUser marks the routes that need it.
func Register(
	e *echo.Echo,
	jwtSvc *auth.JWTService,
	userRepo repository.UserRepository,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// doc.json comes from `swag init -g cmd/server/main.go`; until generated
	// the UI loads without a document.
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", auth.ResolveUser(jwtSvc, userRepo))
	users := api.Group("/users")

	// Public routes
	users.POST("/authenticate", authHandler.Authenticate)
	users.GET("/GetTopTenUser", userHandler.TopTenUsers)
	users.POST("", userHandler.CreateUser)

	// Protected routes
	users.GET("", userHandler.ListUsers, auth.RequireUser)
	users.GET("/:id", userHandler.GetUser, auth.RequireUser)
	users.PUT("/:id", userHandler.UpdateUser, auth.RequireUser)
	users.PATCH("/:id", userHandler.PatchUser, auth.RequireUser)
	users.POST("/:id/pizzalove", userHandler.IncreasePizzaLove, auth.RequireUser)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
