package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/api"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/protocols"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/metrics"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/services"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/usecase"
	"github.com/Plaidmustache/evo-api-ghl-sub000/pkg/db"
	"github.com/Plaidmustache/evo-api-ghl-sub000/pkg/dedupe"
	"github.com/Plaidmustache/evo-api-ghl-sub000/pkg/queue"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge webhook server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	conf := config.LoadConfig(".")
	if conf == nil {
		return fmt.Errorf("failed to load config")
	}

	database, err := db.Connect(bridgeDBConfig(conf),
		&models.Tenant{}, &models.GatewayInstance{}, &models.MessageCorrelation{})
	if err != nil {
		return fmt.Errorf("failed to connect to bridge database: %w", err)
	}
	defer db.Close(database)

	var dedupeStore protocols.DedupeStore
	if conf.RedisAddr != "" {
		store, err := dedupe.NewRedisDedupeStore(conf.RedisAddr, conf.RedisPassword, conf.RedisDB, dedupe.DefaultTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer store.Close()
		dedupeStore = store
	} else {
		log.Printf("[WEBHOOK] - Redis not configured, webhook dedupe disabled")
		dedupeStore = dedupe.NewNoopDedupeStore()
	}

	rabbit := queue.NewRabbitMQ(conf)
	if err := rabbit.Dial(); err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer rabbit.Close()

	m := metrics.NewMetrics()

	tenantRepo := repositories.NewTenantRepository(database)
	instanceRepo := repositories.NewGatewayInstanceRepository(database)
	correlationRepo := repositories.NewMessageCorrelationRepository(database)

	authService := services.NewCRMAuthService(conf, database)
	crmService := services.NewCRMService(conf, authService)
	evolutionClient := services.NewEvolutionClient(conf)

	inbound := usecase.NewInboundMessageUseCase(conf, instanceRepo, tenantRepo, crmService, dedupeStore, rabbit, m)
	connection := usecase.NewConnectionStateUseCase(instanceRepo)
	outbound := usecase.NewOutboundMessageUseCase(conf, tenantRepo, instanceRepo, correlationRepo, evolutionClient, crmService, rabbit, m)
	status := usecase.NewMessageStatusUseCase(tenantRepo, instanceRepo, correlationRepo, crmService, rabbit, m)

	server := api.NewServer(conf, inbound, connection, outbound, status, authService, m)

	srv := &http.Server{
		Addr:              ":" + conf.ServerPort,
		Handler:           server.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("[SERVER] - Listening on :%s", conf.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	return waitForShutdown(srv, errChan)
}

func waitForShutdown(srv *http.Server, errChan <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("[SHUTDOWN] - Received shutdown signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Println("[SHUTDOWN] - Server stopped")
	return nil
}
