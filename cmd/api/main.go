package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lastcallsw/trackeats/config"
	"github.com/lastcallsw/trackeats/internal/api"
	"github.com/lastcallsw/trackeats/internal/database"
	"github.com/lastcallsw/trackeats/internal/router"
	"github.com/lastcallsw/trackeats/internal/server"
	"github.com/lastcallsw/trackeats/internal/service"
)

func main() {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, rate limiting disabled: %v", err)
		redisClient = nil
	}

	cipher, err := service.NewCipher(cfg.EmailKey)
	if err != nil {
		log.Fatalf("Failed to build email cipher: %v", err)
	}

	mailer := service.NewEmailService(cfg)
	authService := service.NewAuthService(db, cfg.JWTSecret, cipher, mailer)
	foodService := service.NewFoodService(db)
	recipeService := service.NewRecipeService(db)

	engine := router.SetupRouter(
		api.NewAuthHandler(db, authService),
		api.NewFoodHandler(foodService),
		api.NewRecipeHandler(recipeService),
		authService,
		redisClient,
		cfg.CORSOrigins,
	)

	srv := server.New(engine, cfg.ServerHost+":"+cfg.ServerPort)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s:%s", cfg.ServerHost, cfg.ServerPort)
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
