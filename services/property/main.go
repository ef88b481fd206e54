package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/config"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/middleware"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/pavitra93/go-facility-platform/shared/realtime"
	"github.com/pavitra93/go-facility-platform/shared/storage"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	metrics.InitAPIMetrics()
	metrics.InitTenancyMetrics()

	// Redis backs the claims cache and idempotency keys
	if err := utils.InitRedis(config.GetEnv("REDIS_HOST", "localhost"), config.GetEnv("REDIS_PORT", "6379")); err != nil {
		logrus.Fatal("Failed to connect to Redis: ", err)
	}
	defer utils.CloseRedis()

	db, err := config.ConnectDatabase(config.GetDatabaseConfig())
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	if err := config.Migrate(db); err != nil {
		logrus.Fatal("Failed to migrate database: ", err)
	}

	authMiddleware, err := middleware.NewAuthMiddleware(
		os.Getenv("AWS_REGION"),
		os.Getenv("COGNITO_USER_POOL_ID"),
	)
	if err != nil {
		logrus.Fatal("Failed to initialize auth middleware: ", err)
	}

	dispatcher := notify.NewKafkaDispatcher(config.GetEnv("KAFKA_BROKER", "localhost:9092"))
	defer dispatcher.Close()

	d := deps{db: db, dispatcher: dispatcher}

	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		blobs, err := storage.NewS3Store(os.Getenv("AWS_REGION"), bucket)
		if err != nil {
			logrus.Fatal("Failed to initialize file storage: ", err)
		}
		d.blobs = blobs
	} else {
		logrus.Warn("STORAGE_BUCKET not set, file uploads disabled")
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		publisher, err := realtime.NewMQTTPublisher(realtime.MQTTConfig{
			Broker:   broker,
			ClientID: "property-" + uuid.NewString()[:8],
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
		})
		if err != nil {
			logrus.Fatal("Failed to connect to MQTT broker: ", err)
		}
		defer publisher.Close()
		d.realtime = publisher
	}

	app := newApp(d)

	router := gin.Default()
	router.Use(middleware.GinMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Property service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app.registerRoutes(router, guards{
		auth:        authMiddleware.RequireAuth(),
		staff:       authMiddleware.RequireRole(staffRoles...),
		idempotency: middleware.Idempotency(24 * time.Hour),
	})

	port := config.GetEnv("PROPERTY_SERVICE_PORT", "8002")
	logrus.Infof("Property service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start property service: ", err)
	}
}
