package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/scholarfund_backend/config"
)

// DebugController is only mounted outside production
type DebugController struct {
	mongo *mongo.Client
	redis *redis.Client
	cfg   *config.Config
}

func NewDebugController(mongoClient *mongo.Client, redisClient *redis.Client, cfg *config.Config) *DebugController {
	return &DebugController{mongo: mongoClient, redis: redisClient, cfg: cfg}
}

// Health pings the backing services
func (dc *DebugController) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	mongoStatus := "connected"
	if dc.mongo == nil {
		mongoStatus = "not configured"
	} else if err := dc.mongo.Ping(ctx, nil); err != nil {
		mongoStatus = "error: " + err.Error()
	}

	redisStatus := "connected"
	if dc.redis == nil {
		redisStatus = "unavailable"
	} else if err := dc.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "error: " + err.Error()
	}

	return success(c, http.StatusOK, "", map[string]interface{}{
		"mongo":          mongoStatus,
		"redis":          redisStatus,
		"ipfsConfigured": dc.cfg.IPFSConfigured(),
		"smtpConfigured": dc.cfg.SMTPConfigured(),
		"kafkaEnabled":   dc.cfg.Kafka.Broker != "",
		"time":           time.Now().UTC(),
	})
}

// Config returns the non-secret settings
func (dc *DebugController) Config(c echo.Context) error {
	return success(c, http.StatusOK, "", map[string]interface{}{
		"env":            dc.cfg.Env,
		"port":           dc.cfg.Port,
		"database":       dc.cfg.Mongo.DBName,
		"redisAddr":      dc.cfg.Redis.Addr,
		"smtpHost":       dc.cfg.SMTP.Host,
		"smtpPort":       dc.cfg.SMTP.Port,
		"fromEmail":      dc.cfg.SMTP.FromEmail,
		"ipfsApi":        dc.cfg.IPFS.APIURL,
		"kafkaTopic":     dc.cfg.Kafka.Topic,
		"frontendUrl":    dc.cfg.FrontendURL,
		"adminWallets":   len(dc.cfg.Auth.AdminWallets),
		"jwtConfigured":  dc.cfg.Auth.JWTSecret != "",
		"corsAllowExtra": dc.cfg.CORSAllowedOrigins,
	})
}
