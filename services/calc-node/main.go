package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"github.com/hetu-project/causality-engine/dgraph"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/vclock"
	"github.com/hetu-project/causality-engine/services/calc-node/config"
	"github.com/hetu-project/causality-engine/services/calc-node/handlers"
	"github.com/hetu-project/causality-engine/services/calc-node/middleware"
	"github.com/hetu-project/causality-engine/services/calc-node/services"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize the vector clock and event log for this node
	clock, err := vclock.New(cfg.NodeID, cfg.Roster())
	if err != nil {
		log.Fatalf("Failed to initialize vector clock: %v", err)
	}

	var eventLog *eventlog.Log
	if cfg.LogCapacity > 0 {
		eventLog = eventlog.NewBoundedLog(cfg.NodeID, cfg.LogCapacity)
	} else {
		eventLog = eventlog.NewLog(cfg.NodeID)
	}

	clockService := services.NewClockService(clock, eventLog)

	// 3. Initialize the optional event archive
	var archive *services.ArchiveService
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("mysql", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}

		archive, err = services.NewArchiveService(db)
		if err != nil {
			log.Fatalf("Failed to initialize event archive: %v", err)
		}
		clockService.AddSink(archive)
		log.Printf("[%s] event archive enabled", cfg.NodeID)
	}

	// 4. Initialize the optional Dgraph export. The node serves without it,
	// so a connection failure only logs a warning.
	if cfg.DgraphURL != "" {
		client, err := dgraph.Connect(cfg.DgraphURL)
		if err != nil {
			log.Printf("[%s] graph export disabled: %v", cfg.NodeID, err)
		} else {
			eventGraph := dgraph.NewEventGraph(client)
			clockService.AddSink(eventGraph)
			done := eventGraph.StartAutoCommit(5 * time.Second)
			defer close(done)
			log.Printf("[%s] graph export enabled", cfg.NodeID)
		}
	}

	// 5. Initialize services
	sumService := services.NewSumService(clockService, cfg.PrivateKey)
	peerClient := services.NewPeerClient(cfg.NetworkConfig(), cfg.NodeID, clockService)

	// 6. Initialize handlers
	sumHandler := handlers.NewSumHandler(sumService)
	actionHandler := handlers.NewActionHandler(clockService, peerClient)
	clockHandler := handlers.NewClockHandler(clockService)
	eventsHandler := handlers.NewEventsHandler(clockService, archive)
	healthHandler := handlers.NewHealthHandler(cfg.NodeID, archive)

	// 7. Setup routes
	router := setupRoutes(sumHandler, actionHandler, clockHandler, eventsHandler, healthHandler)

	// 8. Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	log.Printf("CalcNode %s started on port %s, clock %s", cfg.NodeID, cfg.Port, clockService.Format())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}

func setupRoutes(
	sumHandler *handlers.SumHandler,
	actionHandler *handlers.ActionHandler,
	clockHandler *handlers.ClockHandler,
	eventsHandler *handlers.EventsHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(100, time.Minute))

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Peer to peer messaging
		v1.POST("/sum", sumHandler.HandleSum)

		// Operator actions
		actions := v1.Group("/actions")
		{
			actions.POST("/local", actionHandler.StampLocal)
			actions.POST("/send", actionHandler.SendSum)
		}

		// Observability
		v1.GET("/clock", clockHandler.GetClock)
		v1.GET("/events", eventsHandler.GetEvents)
		v1.GET("/events/archive", eventsHandler.GetArchivedEvents)
	}

	return router
}
