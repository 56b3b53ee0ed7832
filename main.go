package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"k8s.io/klog/v2"

	"github.com/davidandw190/image-generation-server/internal/cloudevents"
	"github.com/davidandw190/image-generation-server/internal/config"
	"github.com/davidandw190/image-generation-server/internal/handlers"
	"github.com/davidandw190/image-generation-server/internal/inference"
	"github.com/davidandw190/image-generation-server/internal/middleware"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg, err := config.Load()
	if err != nil {
		klog.Fatalf("Failed to load configuration: %v", err)
	}

	server, generateHandler, err := newServer(cfg)
	if err != nil {
		klog.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		klog.Infof("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		klog.Errorf("Server forced to shutdown: %v", err)
		return
	}
	generateHandler.Wait()

	klog.Info("Server exiting")
}

func newServer(cfg config.Config) (*http.Server, *handlers.GenerateHandler, error) {
	ceClient, err := cloudevents.NewClient(cfg.SinkURL, cfg.SourceID, cfg.EventType)
	if err != nil {
		return nil, nil, err
	}

	generator := inference.NewClient(cfg.ModelURL, cfg.APIKey, cfg.ImageURLPath)
	generateHandler := handlers.NewGenerateHandler(generator, ceClient)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, generateHandler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return server, generateHandler, nil
}

func newRouter(cfg config.Config, generateHandler http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.LogRequest)
	router.Use(middleware.CORS(cfg.AllowedOrigin))

	// Unrouted methods are reported as missing, not as 405.
	router.MethodNotAllowed(http.NotFound)

	router.Method(http.MethodPost, "/generate-image", generateHandler)
	router.Get("/health", handlers.HealthCheckHandler)
	router.Get("/", handlers.NewIndexHandler(cfg.StaticDir))
	router.Method(http.MethodGet, "/*", handlers.NewStaticHandler(cfg.StaticDir))

	return router
}
