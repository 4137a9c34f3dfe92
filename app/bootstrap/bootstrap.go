package bootstrap

import (
	"log"

	"github.com/aihub/docstore-go/internal/config"
	"github.com/aihub/docstore-go/internal/di"
	"github.com/aihub/docstore-go/internal/document"
	"github.com/aihub/docstore-go/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// Init bootstraps configuration, logger and the dependency injection
// container required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	app := &App{}

	// Build the dependency injection container.
	container := di.InitContainer()
	if err := di.RegisterProviders(container); err != nil {
		return nil, err
	}

	// Eagerly resolve the vector store so connection failures surface at
	// startup, and register its cleanup.
	if err := di.Invoke(func(store document.VectorStore) {
		app.cleanupTasks = append(app.cleanupTasks, store.Close)
		if !store.Ready() {
			logger.Warn("vector store is not ready")
		}
	}); err != nil {
		return nil, err
	}

	cfg := config.GetAppConfig()
	logger.Info("application bootstrapped",
		zap.String("env", cfg.Server.Env),
		zap.String("vector_store", cfg.VectorStore.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider))

	return app, nil
}

// Shutdown flushes logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
