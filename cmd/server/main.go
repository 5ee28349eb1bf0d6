package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/waitlist/internal/server"
	"github.com/dmitrijs2005/waitlist/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
