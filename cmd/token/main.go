package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"tcpos-reports/internal/config"
	"tcpos-reports/pkg/utils"
)

// Prints a signed JWT for local testing of the API.
func main() {
	userID := flag.String("user", "dev-user", "user id carried by the token")
	name := flag.String("name", "Developer", "display name carried by the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.SetSecret(cfg.JWTSecret)

	token, err := utils.GenerateToken(*userID, *name, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
