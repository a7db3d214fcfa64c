// Package env loads broker configuration for the CLI from the process
// environment, optionally seeded from a .env file.
package env

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Environment struct {
	URI      string
	Exchange string
	RunID    string
}

// Load reads the AMQP settings. A missing .env file is fine; missing
// required variables are fatal because publishing was explicitly asked
// for.
func Load(logger *zap.Logger) *Environment {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not read .env file", zap.Error(err))
	}
	uri, ok := os.LookupEnv("RABBITMQ_URI")
	if !ok {
		logger.Fatal("RABBITMQ_URI not set")
	}
	exchange, ok := os.LookupEnv("AMQP_EXCHANGE")
	if !ok {
		logger.Fatal("AMQP_EXCHANGE not set")
	}
	runID, ok := os.LookupEnv("RUN_ID")
	if !ok {
		runID = "hybridsim"
	}
	return &Environment{
		URI:      uri,
		Exchange: exchange,
		RunID:    runID,
	}
}
