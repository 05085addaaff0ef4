package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"learnhub-chat/internal/auth"
	"learnhub-chat/internal/config"
	"learnhub-chat/internal/db"
	"learnhub-chat/internal/handlers"
	"learnhub-chat/internal/middleware"
	"learnhub-chat/internal/observability"
	"learnhub-chat/internal/rabbitmq"
	"learnhub-chat/internal/repositories"
	"learnhub-chat/internal/telemetry"
	"learnhub-chat/internal/ws"
)

const serviceName = "learnhub-chat"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	auditEmitter := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	hub := ws.NewHub()

	chatHandler := handlers.NewChatHandler(roomRepo, messageRepo, auditEmitter)
	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, messageRepo, verifier)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/rooms", authMiddleware, chatHandler.ListRooms)
	router.POST("/rooms/start", authMiddleware, chatHandler.StartRoom)
	router.GET("/rooms/:room_id/messages", authMiddleware, chatHandler.GetRoomMessages)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
