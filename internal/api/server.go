// Package api exposes the bridge's two webhook receivers and the
// marketplace install callback. Receivers acknowledge synchronously and
// route in a detached continuation, so the gateway's and the CRM's retry
// timers never see this bridge's processing latency.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/metrics"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/services"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// processingTimeout bounds one webhook's detached processing: a handful of
// upstream calls, each already capped by the client timeout.
const processingTimeout = 2 * time.Minute

type Server struct {
	Configs    *config.Config
	Engine     *gin.Engine
	Inbound    *usecase.InboundMessageUseCase
	Connection *usecase.ConnectionStateUseCase
	Outbound   *usecase.OutboundMessageUseCase
	Status     *usecase.MessageStatusUseCase
	Auth       *services.CRMAuthService
	Metrics    *metrics.Metrics
}

func NewServer(
	configs *config.Config,
	inbound *usecase.InboundMessageUseCase,
	connection *usecase.ConnectionStateUseCase,
	outbound *usecase.OutboundMessageUseCase,
	status *usecase.MessageStatusUseCase,
	auth *services.CRMAuthService,
	m *metrics.Metrics,
) *Server {
	if configs.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	server := &Server{
		Configs:    configs,
		Engine:     engine,
		Inbound:    inbound,
		Connection: connection,
		Outbound:   outbound,
		Status:     status,
		Auth:       auth,
		Metrics:    m,
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.Engine.GET("/health", s.handleHealth)
	s.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.Engine.POST("/webhooks/evolution", s.handleEvolutionWebhook)
	s.Engine.POST("/webhooks/crm", s.handleCRMWebhook)
	s.Engine.GET("/oauth/callback", s.handleOAuthCallback)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// process runs one webhook's routing after the acknowledgment went out. The
// request context is gone by then, so it gets its own deadline, and a panic
// in routing must not take the process down with it.
func (s *Server) process(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), processingTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WEBHOOK] - Panic while processing %s: %v", name, r)
		}
	}()

	if err := run(ctx); err != nil {
		log.Printf("[WEBHOOK] - Failed to process %s: %v", name, err)
	}
}
