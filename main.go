package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ivytime/site/content"
	"ivytime/site/database"
	"ivytime/site/handlers"
	"ivytime/site/middleware"
	"ivytime/site/store"
)

const defaultContentRepo = "https://github.com/uberfig/ivytime.gay.git"

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file loaded")
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// --- Initialize PostgreSQL database (analytics store) ---
	dbClient, err := database.NewPostgresDB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize PostgreSQL database")
	}
	defer dbClient.Close()

	if err := dbClient.EnsureSchema(context.Background()); err != nil {
		logrus.WithError(err).Fatal("Failed to apply analytics schema")
	}

	// --- Site content checkout ---
	contentDir := os.Getenv("CONTENT_DIR")
	if contentDir == "" {
		contentDir = "./static"
	}
	contentRepo := os.Getenv("CONTENT_REPO_URL")
	if contentRepo == "" {
		contentRepo = defaultContentRepo
	}
	refresher := content.NewRefresher(contentRepo, contentDir)
	if err := refresher.Refresh(context.Background()); err != nil {
		// The site can still serve whatever checkout exists plus the stats API.
		logrus.WithError(err).Warn("Initial content refresh failed")
	}

	// --- Stores, pipeline, handlers ---
	pipeline := store.NewPipeline(dbClient.DB)
	analyticsStore := store.NewAnalyticsStore(dbClient.DB)

	authHandlers := handlers.NewAuthHandlers()
	statsHandlers := handlers.NewStatsHandlers(analyticsStore)
	refreshHandlers := handlers.NewRefreshHandlers(refresher)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.Analytics(pipeline))

	api := r.Group("/api")
	{
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		stats := api.Group("/stats")
		{
			stats.GET("/path", statsHandlers.GetPath)
			stats.GET("/paths", statsHandlers.ListPaths)
			stats.GET("/paths/top", statsHandlers.TopPaths)
			stats.GET("/paths/:id", statsHandlers.GetPathByID)
			stats.GET("/paths/:id/graph", statsHandlers.GetGraph)
		}
	}

	r.POST("/refresh", middleware.AuthRequired(), refreshHandlers.Refresh)

	// Static site files, with the catch-all 404 for everything else.
	publicDir := refresher.PublicDir()
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			p := filepath.Join(publicDir, filepath.Clean("/"+c.Request.URL.Path))
			if info, err := os.Stat(p); err == nil {
				if !info.IsDir() {
					c.File(p)
					return
				}
				index := filepath.Join(p, "index.html")
				if _, err := os.Stat(index); err == nil {
					c.File(index)
					return
				}
			}
		}
		c.String(http.StatusNotFound, "I couldn't find '%s'. Try something else?", c.Request.URL.Path)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logrus.Infof("Site server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Site server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exiting.")
}
