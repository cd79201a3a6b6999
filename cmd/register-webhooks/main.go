package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/service"
	"github.com/ikyum/shopbridge/internal/shopify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseURL := cfg.API.PublicBaseURL
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	if baseURL == "" {
		fmt.Println("Usage: go run cmd/register-webhooks/main.go [public-base-url]")
		fmt.Println("Example: go run cmd/register-webhooks/main.go https://bridge.example.com")
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := shopify.NewClient(cfg.Shopify, logger)
	registrar := service.NewWebhookRegistrar(client, baseURL, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := registrar.EnsureWebhooks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ensure webhooks: %v\n", err)
		os.Exit(1)
	}

	if len(created) == 0 {
		fmt.Println("All webhook subscriptions already present.")
	} else {
		fmt.Printf("Created subscriptions: %v\n", created)
	}
}
