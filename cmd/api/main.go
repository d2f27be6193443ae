package main

import (
	"os"

	"github.com/teamaster/core/cmd/api/commands"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

// @title TeaMaster API
// @version 1.0
// @description Upsert and look up tea records by name

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	os.Exit(commands.Execute(version))
}
