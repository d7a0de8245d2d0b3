// Command seed bootstraps the first administrator account so a fresh
// deployment can log in and import users. Existing accounts are left
// untouched.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/internal/repository"
	"github.com/noah-isme/it-logbook-api/pkg/config"
	"github.com/noah-isme/it-logbook-api/pkg/database"
)

func main() {
	var (
		email     string
		password  string
		firstName string
		surname   string
		timeout   time.Duration
	)

	flag.StringVar(&email, "email", "", "Administrator email address")
	flag.StringVar(&password, "password", "", "Administrator password")
	flag.StringVar(&firstName, "first-name", "System", "Administrator first name")
	flag.StringVar(&surname, "surname", "Admin", "Administrator surname")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Database operation timeout")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}
	if len(password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	users := repository.NewUserRepository(db)

	existing, err := users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("look up %s: %v", email, err)
	}
	if existing != nil {
		log.Printf("account %s already exists (role %s), nothing to do", email, existing.Role)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		Surname:      surname,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create administrator: %v", err)
	}

	log.Printf("administrator %s created (id %s)", email, admin.ID)
}
