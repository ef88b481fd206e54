package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/config"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/middleware"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+middleware.IdempotencyHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// newRouter wires the edge routes. auth resolves the caller; managers
// guards operator endpoints.
func newRouter(services *ServiceClients, auth, managers gin.HandlerFunc, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), cors(), middleware.GinMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", nil)
	})
	router.GET("/health/services", func(c *gin.Context) {
		utils.OKResponse(c, "Service status retrieved successfully", services.GetServiceStatus(c.Request.Context()))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1", auth, limiter.Middleware())
	v1.Any("/*path", services.PropertyService.ProxyRequest)

	notifier := router.Group("/notifier", auth, managers)
	{
		notifier.GET("/status", services.NotifierService.ProxyRequest)
		notifier.POST("/reset", services.NotifierService.ProxyRequest)
	}

	return router
}

func main() {
	config.LoadEnv()
	metrics.InitAPIMetrics()

	// Redis only caches resolved claims here
	if err := utils.InitRedis(config.GetEnv("REDIS_HOST", "localhost"), config.GetEnv("REDIS_PORT", "6379")); err != nil {
		logrus.Warnf("Failed to connect to Redis, caching disabled: %v", err)
	}

	awsRegion := os.Getenv("AWS_REGION")
	cognitoUserPoolID := os.Getenv("COGNITO_USER_POOL_ID")
	if awsRegion == "" || cognitoUserPoolID == "" {
		logrus.Fatal("AWS_REGION and COGNITO_USER_POOL_ID must be set")
	}

	authMiddleware, err := middleware.NewAuthMiddleware(awsRegion, cognitoUserPoolID)
	if err != nil {
		logrus.Fatal("Failed to initialize auth middleware: ", err)
	}

	services := &ServiceClients{
		PropertyService: NewServiceClient(config.GetEnv("PROPERTY_SERVICE_URL", "http://localhost:8002")),
		NotifierService: NewServiceClient(config.GetEnv("NOTIFIER_SERVICE_URL", "http://localhost:8004")),
	}
	limiter := middleware.NewRateLimiter(
		rate.Limit(config.GetEnvFloat("RATE_LIMIT_RPS", 50)),
		config.GetEnvInt("RATE_LIMIT_BURST", 100),
	)

	router := newRouter(services, authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleManager), limiter)

	port := config.GetEnv("API_GATEWAY_PORT", "8080")
	logrus.Infof("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start API Gateway: ", err)
	}
}
