package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/LEVIII007/strapi-chat-app/internal/auth"
	"github.com/LEVIII007/strapi-chat-app/internal/config"
	"github.com/LEVIII007/strapi-chat-app/internal/db"
	"github.com/LEVIII007/strapi-chat-app/internal/handlers"
	"github.com/LEVIII007/strapi-chat-app/internal/observability"
	"github.com/LEVIII007/strapi-chat-app/internal/rabbitmq"
	"github.com/LEVIII007/strapi-chat-app/internal/repositories"
	"github.com/LEVIII007/strapi-chat-app/internal/telemetry"
	"github.com/LEVIII007/strapi-chat-app/internal/ws"
)

const serviceName = "strapi-chat-app"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit_log.chats", serviceName, cfg.Environment)

	if wsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(wsPublisher)
		defer wsPublisher.Close()
	}

	sessionRepo := repositories.NewSessionRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	authManager := auth.NewManager(cfg.JWTSecret)

	hub := ws.NewHub()
	relay := ws.NewRelayHandler(hub, sessionRepo, messageRepo, authManager, cfg.FrontendURL)

	sessionHandler := handlers.NewSessionHandler(sessionRepo, auditEmitter)
	messageHandler := handlers.NewMessageHandler(sessionRepo, messageRepo, hub)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := auth.Middleware(authManager)

	router.GET("/api/chat-sessions", authMiddleware, sessionHandler.ListSessions)
	router.POST("/api/chat-sessions", authMiddleware, sessionHandler.CreateSession)
	router.GET("/api/chat-sessions/:document_id", authMiddleware, sessionHandler.GetSession)
	router.DELETE("/api/chat-sessions/:document_id", authMiddleware, sessionHandler.DeleteSession)
	router.GET("/api/chat-sessions/:document_id/messages", authMiddleware, messageHandler.GetSessionMessages)
	router.POST("/api/chat-sessions/:document_id/messages", authMiddleware, messageHandler.PostMessage)
	router.DELETE("/api/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.GET("/ws", relay.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
