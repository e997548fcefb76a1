package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads the environment variables from .env when GO_ENV is not set
// to a deployed environment.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Redis Configuration (curriculum overview cache)
	REDIS_URL string
	// Background jobs
	CRON_ENABLED       bool
	SUBJECT_PURGE_DAYS int
}

func Get() (*EnvironmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	purgeDays, err := strconv.Atoi(os.Getenv("SUBJECT_PURGE_DAYS"))
	if err != nil || purgeDays <= 0 {
		purgeDays = 90
	}

	envVariables := &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Cron (enabled unless explicitly turned off)
		CRON_ENABLED:       os.Getenv("CRON_ENABLED") != "false",
		SUBJECT_PURGE_DAYS: purgeDays,
	}

	return envVariables, nil
}
