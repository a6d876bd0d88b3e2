package services

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"gorm.io/gorm"

	"proof/internal/repositories"
	"proof/internal/transport"
)

// Services aggregates the backend services behind the command router.
type Services struct {
	Settings     SettingsService
	ChatSessions ChatSessionService
	ParentLock   ParentLockService
	KidSafe      KidSafeService
	Network      NetworkService
	Ollama       OllamaService
}

type Options struct {
	Secrets     *KeyringService
	Ollama      OllamaClient
	Emitter     transport.Emitter
	UnlockRate  float64
	UnlockBurst int
	Log         logger.Logger
}

// NewServices constructs the services using repositories backed by db.
func NewServices(db *gorm.DB, opts Options) *Services {
	return &Services{
		Settings:     NewSettingsService(repositories.NewSettingsRepository(db)),
		ChatSessions: NewChatSessionService(repositories.NewChatSessionRepository(db)),
		ParentLock: NewParentLockService(repositories.NewParentLockRepository(db), opts.Secrets,
			opts.UnlockRate, opts.UnlockBurst, opts.Log),
		KidSafe: NewKidSafeService(repositories.NewKidSafeRepository(db)),
		Network: NewNetworkService(repositories.NewNetworkSettingsRepository(db)),
		Ollama:  NewOllamaService(opts.Ollama, opts.Emitter, opts.Log),
	}
}

func (s *Services) Startup(ctx context.Context) {
	s.Settings.Startup(ctx)
	s.ChatSessions.Startup(ctx)
	s.ParentLock.Startup(ctx)
	s.KidSafe.Startup(ctx)
	s.Network.Startup(ctx)
	s.Ollama.Startup(ctx)
}
