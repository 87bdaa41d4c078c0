package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/manishiitg/cloud-sdk-go/internal/testing/commands/fixtures"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	if err := fixtures.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
