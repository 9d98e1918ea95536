// Command createadmin bootstraps the first dashboard admin account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"visitrack/api/database"
	"visitrack/api/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: createadmin <email> <password>")
		return 1
	}
	email, password := os.Args[1], os.Args[2]

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	dbClient, err := database.NewPostgresDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer dbClient.Close()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminStore := store.NewAdminStore(dbClient.DB)
	admin, err := adminStore.CreateAdmin(ctx, email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			fmt.Fprintf(os.Stderr, "Admin %s already exists\n", email)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to create admin: %v\n", err)
		return 1
	}

	fmt.Printf("Admin created: ID=%d, Email=%s\n", admin.ID, admin.Email)
	return 0
}
