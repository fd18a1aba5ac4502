package main

import (
	"context"
	"log"

	"github.com/agromarket/auction-service/internal/app"
	"github.com/agromarket/auction-service/internal/app/config"
)

func main() {
	cfg := config.MustLoad()

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("application terminated: %v", err)
	}
}
