package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/escolarhq/academico-api/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Academico API - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	seeder := database.NewSeeder(store.GetDB())
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println(separator)
}
