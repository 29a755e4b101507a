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

	"bukutoko/backend/internal/config"
	"bukutoko/backend/internal/httpapi"
	"bukutoko/backend/internal/kv"
	"bukutoko/backend/internal/service"
	"bukutoko/backend/internal/store/memory"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 1)

	// Persistence backend selection: Postgres wins over Redis; with neither
	// configured the store is volatile and seeded with demo data.
	var persist kv.Store
	switch {
	case cfg.DatabaseURL != "":
		pg, err := kv.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start without persistence", err)
		}
		persist = pg
		closers = append(closers, pg.Close)
		log.Println("persistence: postgres")
	case cfg.RedisAddr != "":
		rd := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rd.Ping(ctx); err != nil {
			log.Fatalf("redis unavailable (%v) and REDIS_ADDR is set; refusing to start without persistence", err)
		}
		persist = rd
		closers = append(closers, rd.Close)
		log.Println("persistence: redis")
	default:
		log.Println("persistence: none (volatile store with demo data)")
	}

	var repo *memory.Store
	if persist != nil {
		loaded, err := memory.New(ctx, persist)
		if err != nil {
			log.Fatalf("failed to load collections: %v", err)
		}
		repo = loaded
	} else {
		repo = memory.NewSeeded()
	}

	svc := service.New(repo)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("bookkeeping backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
