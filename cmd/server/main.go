package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/config"
	"github.com/vishwajeetdabholkar/resume-parser-api/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container := config.NewContainer()

	// Fail fast on missing credentials or external tools
	if err := container.Config.Validate(); err != nil {
		container.Logger.Error("Startup validation failed", err)
		os.Exit(1)
	}

	// Handlers
	resumeHandler := handler.NewResumeHandler(
		container.PDFService,
		container.AIService,
		container.Config,
		container.Logger,
	)

	// Router
	router := handler.NewRouter(
		resumeHandler,
		handler.Recovery(container.Logger),
		handler.RequestLogging(container.Logger),
	)

	// start server
	server := &http.Server{
		Addr:    ":" + container.Config.GetServerPort(),
		Handler: router,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	_ = server.Close()

	container.Logger.Info("Server exited")
}
