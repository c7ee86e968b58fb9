package main

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pizzaproblem/internal/auth"
	"pizzaproblem/internal/cache"
	"pizzaproblem/internal/config"
	"pizzaproblem/internal/db"
	"pizzaproblem/internal/handler"
	"pizzaproblem/internal/model"
	"pizzaproblem/internal/repository"
	"pizzaproblem/internal/router"
	"pizzaproblem/internal/service"
)

// @title Pizza Problem API
// @version 1.0
// @description User CRUD API with bearer-token authentication and a pizza-love leaderboard.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	var userRepo repository.UserRepository
	switch cfg.StorageDriver {
	case config.StorageMemory:
		userRepo = repository.NewMemoryUserRepository()
		log.Println("using in-memory user store")
	case config.StorageMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("database init: %v", err)
		}
		if err := gormDB.AutoMigrate(&model.User{}); err != nil {
			log.Fatalf("auto-migrate: %v", err)
		}
		userRepo = repository.NewUserRepository(gormDB)
	default:
		log.Fatalf("unknown storage driver %q", cfg.StorageDriver)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	userService := service.NewUserService(userRepo, jwtService, cacheClient)

	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService)

	router.Register(e, jwtService, userRepo, authHandler, userHandler)

	log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
