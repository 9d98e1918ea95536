package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"visitrack/api/database"
	"visitrack/api/handlers"
	"visitrack/api/middleware"
	"visitrack/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbClient, err := database.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	// Stores share the one pooled handle; it is passed in explicitly.
	visitorStore := store.NewVisitorStore(dbClient.DB)
	factStore := store.NewFactStore(dbClient.DB)
	adminStore := store.NewAdminStore(dbClient.DB)

	authHandlers := handlers.NewAuthHandlers(adminStore)
	ingestHandlers := handlers.NewIngestHandlers(visitorStore, factStore)
	dashboardHandlers := handlers.NewDashboardHandlers(visitorStore, factStore)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		// Ingestion endpoints are intentionally open to anonymous clients.
		analytics := api.Group("/analytics")
		{
			analytics.POST("/visitor", ingestHandlers.RecordVisit)
			analytics.POST("/event", ingestHandlers.TrackEvent)
			analytics.POST("/pageview", ingestHandlers.TrackPageView)
			analytics.POST("/registration", ingestHandlers.TrackRegistration)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", authHandlers.Login)
			admin.POST("/logout", authHandlers.Logout)
			admin.POST("/create", authHandlers.CreateAdmin)

			// Dashboard reads require a valid session token.
			protected := admin.Group("/")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/verify", authHandlers.Verify)
				protected.GET("/stats", dashboardHandlers.GetStats)
				protected.GET("/visitors", dashboardHandlers.ListVisitors)
				protected.GET("/visitor/:visitorId", dashboardHandlers.GetVisitorDetail)
				protected.GET("/registrations", dashboardHandlers.ListRegistrations)
				protected.GET("/events", dashboardHandlers.ListRecentEvents)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Analytics API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Analytics API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
