package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tempmail/internal/api"
	"tempmail/internal/config"
	"tempmail/internal/mailtm"
	"tempmail/internal/sanitize"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	opts := []mailtm.Option{
		mailtm.WithBaseURL(cfg.MailTMBaseURL),
		mailtm.WithFallbackDomain(cfg.FallbackDomain),
	}
	if cfg.SanitizeHTML {
		opts = append(opts, mailtm.WithHTMLSanitizer(sanitize.HTML))
	}
	client := mailtm.New(opts...)

	handler := api.New(client)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Router(),
	}

	go func() {
		log.Printf("API server starting on %s (provider %s)", cfg.ListenAddr, cfg.MailTMBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
