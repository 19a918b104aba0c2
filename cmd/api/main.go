// Package main is the Wayfinder API process entrypoint. Swaggo annotations
// live on the httpserver package doc comment, the actual route owner.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"wayfinder/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server, shutting down gracefully on SIGINT/SIGTERM.
func main() {
	log.Println("wayfinder api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("wayfinder api stopped with error: %v", err)
	}
}
