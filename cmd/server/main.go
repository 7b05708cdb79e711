package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/vkarpins/stashkeeper/internal/server"
	"github.com/vkarpins/stashkeeper/internal/server/config"
)

func main() {
	// Missing .env is fine; env vars and flags still apply.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(context.Background())
}
