package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/config"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/middleware"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()
	metrics.InitAPIMetrics()
	metrics.InitWorkerMetrics()

	cfg, err := LoadConfig(os.Getenv("NOTIFIER_CONFIG"))
	if err != nil {
		logrus.Fatal("Failed to load notifier config: ", err)
	}

	db, err := config.ConnectDatabase(config.GetDatabaseConfig())
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}

	push := NewPushClient(cfg.Push)
	reader := NewKafkaReader(config.GetEnv("KAFKA_BROKER", "localhost:9092"), cfg.Kafka)
	consumer := NewConsumer(reader, tenancy.NewGormStore[models.DeviceToken](db), push)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go consumer.Run(ctx)

	router := gin.Default()
	router.Use(middleware.GinMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Notifier service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	notifier := router.Group("/notifier")
	{
		notifier.GET("/status", handleGetPushStatus(push))
		notifier.POST("/reset", handleResetPush(push))
	}

	port := config.GetEnv("NOTIFIER_SERVICE_PORT", "8004")
	logrus.Infof("Notifier service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start notifier service: ", err)
	}
}
