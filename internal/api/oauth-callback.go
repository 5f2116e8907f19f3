package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleOAuthCallback completes a marketplace install: the CRM redirects
// here with a one-time code, which is exchanged for the tenant's first
// token pair. Unlike the webhook receivers this runs synchronously; the
// installer is a person waiting on the redirect.
func (s *Server) handleOAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code parameter"})
		return
	}

	tenant, err := s.Auth.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.Printf("[OAUTH] - Install failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "installation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "installed",
		"locationId": tenant.ID,
	})
}
