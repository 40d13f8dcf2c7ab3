package main

import (
	"context"
	"log"

	"campusleave/internal/app/server"
	"campusleave/internal/platform/config"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	app, err := server.New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
