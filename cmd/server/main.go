package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/optin-service/internal/api"
	"github.com/ignite/optin-service/internal/config"
	"github.com/ignite/optin-service/internal/contact"
	"github.com/ignite/optin-service/internal/resend"
	"github.com/ignite/optin-service/internal/store"
	"github.com/ignite/optin-service/internal/subscription"
	"github.com/ignite/optin-service/internal/turnstile"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Pending-subscription store
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatalf("Redis unreachable at %s: %v", opts.Addr, err)
	}
	pingCancel()
	log.Printf("Connected to Redis at %s", opts.Addr)

	// Providers
	resendClient := resend.NewClient(cfg.Resend)
	turnstileClient := turnstile.NewClient(cfg.Turnstile)

	// Workflows
	subs, err := subscription.NewService(store.New(redisClient), resendClient, resendClient, cfg.Subscribe)
	if err != nil {
		log.Fatalf("Failed to initialize subscription service: %v", err)
	}
	contactSvc := contact.NewService(turnstileClient, resendClient, cfg.Contact)

	handlers, err := api.NewHandlers(subs, contactSvc)
	if err != nil {
		log.Fatalf("Failed to initialize handlers: %v", err)
	}
	server := api.NewServer(handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}

	log.Println("Server stopped")
}
