package main

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"pizzaproblem/internal/config"
	"pizzaproblem/internal/db"
	apperrors "pizzaproblem/internal/errors"
	"pizzaproblem/internal/model"
	"pizzaproblem/internal/repository"
)

type seedUser struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
	PizzaLove int
}

// The two demo users the API shipped with.
var seedUsers = []seedUser{
	{FirstName: "Test", LastName: "Test", Username: "test", Password: "test", PizzaLove: 1},
	{FirstName: "User", LastName: "User", Username: "user", Password: "user", PizzaLove: 3},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := repository.NewUserRepository(gormDB)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, s := range seedUsers {
		if _, err := repo.FindByUsername(ctx, s.Username); err == nil {
			log.Printf("User %q already exists, skipping", s.Username)
			skipped++
			continue
		} else if !errors.Is(err, apperrors.ErrUserNotFound) {
			log.Fatalf("Failed to check user %q: %v", s.Username, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password for %q: %v", s.Username, err)
		}

		user := &model.User{
			FirstName:    s.FirstName,
			LastName:     s.LastName,
			Username:     s.Username,
			PasswordHash: string(hash),
			PizzaLove:    s.PizzaLove,
		}
		if err := repo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user %q: %v", s.Username, err)
		}
		log.Printf("Created user %q with id %d", user.Username, user.ID)
		created++
	}

	log.Printf("Seed complete: %d created, %d skipped", created, skipped)
}
