package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/thefaces/checkout-service/internal/client"
	"github.com/thefaces/checkout-service/internal/config"
	"github.com/thefaces/checkout-service/internal/repository"
	"github.com/thefaces/checkout-service/internal/server"
	"github.com/thefaces/checkout-service/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	// Gateway selection happens here, once. A production process without
	// credentials refuses to start rather than silently bypassing charges.
	var gateway client.PaymentGateway
	switch {
	case cfg.Culqi.SecretKey != "":
		gateway = client.NewCulqiClient(&cfg.Culqi)
	case cfg.Environment.IsProduction():
		log.Fatal("CULQI_SECRET_KEY is required in production")
	default:
		log.Println("CULQI_SECRET_KEY not set, charges will be recorded as pending_dev")
		gateway = client.NewDevGateway()
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)

	checkoutRepo := repository.NewCheckoutConfigRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	analyticsSink := service.NewAnalyticsSink(analyticsRepo)
	checkoutService := service.NewCheckoutService(gateway, checkoutRepo, regRepo, analyticsSink)
	catalogService := service.NewCatalogService(checkoutRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(cfg, checkoutService, catalogService, regRepo)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}

	// let in-flight analytics writes land before exit
	analyticsSink.Wait()
}
