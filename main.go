package main

import (
	"context"
	"embed"
	"fmt"
	"path/filepath"

	"github.com/wailsapp/wails/v2"
	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"gorm.io/gorm/logger"

	"proof/internal/chat"
	"proof/internal/config"
	"proof/internal/database"
	"proof/internal/events"
	"proof/internal/gate"
	"proof/internal/generation"
	"proof/internal/lifecycle"
	"proof/internal/logging"
	"proof/internal/ollama"
	"proof/internal/services"
	"proof/internal/state"
	"proof/internal/stores"
	"proof/internal/transport"
	"proof/internal/utils"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := utils.LoadEnv(); err != nil {
		fmt.Println("Error loading .env:", err)
	}

	appDir, err := config.AppDir()
	if err != nil {
		fmt.Println("Error resolving config directory:", err)
		return
	}

	cfg, err := config.Load(configPath(appDir))
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	log, level, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Println("Error opening log:", err)
		return
	}

	db, err := database.Init(database.Config{
		Path:     cfg.Database.Path,
		LogLevel: gormLevel(level),
		Log:      log,
	})
	if err != nil {
		log.Error("Error opening database: " + err.Error())
		return
	}

	ring, err := services.OpenKeyring(appDir)
	if err != nil {
		log.Error("Error opening keyring: " + err.Error())
		return
	}

	// Backend side: services behind the command router.
	bus := transport.NewBus()
	router := transport.NewRouter()
	svc := services.NewServices(db, services.Options{
		Secrets: services.NewKeyringService(ring),
		Ollama: ollama.NewClient(ollama.Config{
			BaseURL:        cfg.Ollama.BaseURL,
			Binary:         cfg.Ollama.Binary,
			HealthTimeout:  cfg.Ollama.HealthTimeout.Duration,
			StartupWait:    cfg.Ollama.StartupWait.Duration,
			RequestTimeout: cfg.Ollama.RequestTimeout.Duration,
			Log:            log,
		}),
		Emitter:     bus,
		UnlockRate:  cfg.ParentLock.UnlockRate,
		UnlockBurst: cfg.ParentLock.UnlockBurst,
		Log:         log,
	})
	svc.Register(router, cfg.Transport.PullTimeout.Duration)

	importer := services.NewLegacyImportService(appDir, svc.Settings, svc.ChatSessions, log)
	if _, err := importer.Import(context.Background()); err != nil {
		log.Warning("legacy import failed: " + err.Error())
	}

	// Client side: everything below talks to the backend only through t.
	t := transport.NewLocal(router, bus, transport.LocalConfig{
		CallTimeout: cfg.Transport.CallTimeout.Duration,
		MaxRetries:  cfg.Transport.MaxRetries,
		RetryDelay:  cfg.Transport.RetryDelay.Duration,
		Log:         log,
	})
	st := state.New(t, log)
	g := gate.New(st, t, log)
	controller := chat.NewController(chat.Deps{
		State:      st,
		Gate:       g,
		Lifecycle:  lifecycle.NewClient(t, g, log),
		Generation: generation.NewClient(t, g, generation.Config{IdleTimeout: cfg.Stream.IdleTimeout.Duration, Log: log}),
		Sessions:   stores.NewSessionStore(t),
		Emit:       func(ctx context.Context, name string, payload any) { events.Emit(ctx, name, payload) },
		Log:        log,
	})

	app := NewApp(controller, svc, log)
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	err = wails.Run(&options.App{
		Title:  "Proof",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "Proof",
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		Logger:           log,
		LogLevel:         level,
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}

// configPath prefers ./config.toml at the project root during development.
func configPath(appDir string) string {
	if database.IsDevelopment() {
		if root, err := utils.FindProjectRoot(); err == nil {
			return filepath.Join(root, "config.toml")
		}
	}
	return filepath.Join(appDir, "config.toml")
}

func gormLevel(level wailslogger.LogLevel) logger.LogLevel {
	switch level {
	case wailslogger.TRACE, wailslogger.DEBUG:
		return logger.Info
	case wailslogger.ERROR:
		return logger.Error
	default:
		return logger.Warn
	}
}
