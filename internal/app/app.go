package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/inkwell/internal/common"
	"github.com/ternarybob/inkwell/internal/handlers"
	"github.com/ternarybob/inkwell/internal/interfaces"
	"github.com/ternarybob/inkwell/internal/services/conversion"
	"github.com/ternarybob/inkwell/internal/services/extract"
	"github.com/ternarybob/inkwell/internal/services/handwriting"
	"github.com/ternarybob/inkwell/internal/services/scratch"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Scratch storage
	ScratchStore *scratch.Service
	Janitor      *scratch.Janitor

	// Pipeline services
	TextExtractor     interfaces.TextExtractor
	Renderer          interfaces.HandwritingRenderer
	ConversionService interfaces.ConversionService

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	UploadHandler *handlers.UploadHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize scratch directories and the stale file janitor
	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	logger.Info().
		Str("font", cfg.Render.FontPath).
		Int64("max_upload_bytes", cfg.Upload.MaxBytes).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage creates the scratch directories and starts the janitor
func (a *App) initStorage() error {
	a.ScratchStore = scratch.NewService(a.Config.Storage, a.Logger)
	if err := a.ScratchStore.EnsureDirs(); err != nil {
		return err
	}

	a.Janitor = scratch.NewJanitor(a.ScratchStore, a.Config.Storage.MaxAgeDuration(), a.Logger)
	if err := a.Janitor.Start(a.Config.Storage.SweepSchedule); err != nil {
		return err
	}

	a.Logger.Debug().
		Str("uploads_dir", a.Config.Storage.UploadsDir).
		Str("outputs_dir", a.Config.Storage.OutputsDir).
		Msg("Scratch storage initialized")

	return nil
}

// initServices builds the extraction and rendering pipeline. A missing typeface is fatal.
func (a *App) initServices() error {
	a.TextExtractor = extract.NewService(a.Logger)

	renderer, err := handwriting.NewRenderer(a.Config.Render, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load handwriting typeface %s: %w", a.Config.Render.FontPath, err)
	}
	a.Renderer = renderer

	a.ConversionService = conversion.NewService(a.TextExtractor, a.Renderer, a.ScratchStore, a.Logger)

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.UploadHandler = handlers.NewUploadHandler(a.ConversionService, a.ScratchStore, a.Config.Upload.MaxBytes, a.Logger)
}

// Close stops background work
func (a *App) Close() error {
	if a.Janitor != nil {
		a.Janitor.Stop()
		a.Logger.Info().Msg("Scratch janitor stopped")
	}
	return nil
}
