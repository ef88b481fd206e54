package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/middleware"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

// identityHeaders are set by the gateway only. Client-supplied values are
// dropped before forwarding.
var identityHeaders = []string{"X-User-ID", "X-User-Email", "X-Tenant-ID", "X-User-Role"}

// ServiceClient handles HTTP communication with microservices
type ServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// ServiceClients holds all service clients
type ServiceClients struct {
	PropertyService *ServiceClient
	NotifierService *ServiceClient
}

// NewServiceClient creates a new service client
func NewServiceClient(baseURL string) *ServiceClient {
	return &ServiceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ProxyRequest forwards the request to the service under the same path. The
// Authorization header travels with it so the service verifies the caller
// itself.
func (sc *ServiceClient) ProxyRequest(c *gin.Context) {
	targetURL := sc.baseURL + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to create request")
		return
	}
	req.ContentLength = c.Request.ContentLength

	for key, values := range c.Request.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	for _, h := range identityHeaders {
		req.Header.Del(h)
	}

	if p, err := middleware.PrincipalFromContext(c); err == nil {
		req.Header.Set("X-User-ID", p.SubjectID)
		req.Header.Set("X-User-Email", p.Email)
		req.Header.Set("X-Tenant-ID", p.TenantID.String())
		req.Header.Set("X-User-Role", string(p.Role))
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to communicate with service")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, nil)
}

// HealthCheck checks if a service is healthy
func (sc *ServiceClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	return nil
}

func serviceHealth(ctx context.Context, sc *ServiceClient, note string) map[string]interface{} {
	status := map[string]interface{}{"healthy": true}
	if err := sc.HealthCheck(ctx); err != nil {
		status["healthy"] = false
		status["error"] = err.Error()
	}
	if note != "" {
		status["note"] = note
	}
	return status
}

// GetServiceStatus returns the status of all services
func (scs *ServiceClients) GetServiceStatus(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"property_service": serviceHealth(ctx, scs.PropertyService, ""),
		"notifier_service": serviceHealth(ctx, scs.NotifierService, "Background Kafka consumer"),
	}
}
