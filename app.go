package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"proof/internal/chat"
	"proof/internal/events"
	"proof/internal/models"
	"proof/internal/services"
)

// App is the surface bound to the frontend. Every method delegates to the
// chat controller, which publishes state changes on events.UIState.
type App struct {
	ctx        context.Context
	controller *chat.Controller
	services   *services.Services
	log        logger.Logger
	dbClose    func() error
}

func NewApp(controller *chat.Controller, svc *services.Services, log logger.Logger) *App {
	return &App{controller: controller, services: svc, log: log}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	events.EnableRuntimeEmitter()
	a.services.Startup(ctx)
	go a.controller.Startup(ctx)
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
}

func (a *App) GetView() chat.View {
	return a.controller.View()
}

func (a *App) CheckHealth() bool {
	return a.controller.CheckHealth(a.ctx)
}

func (a *App) RefreshModels() error {
	return a.controller.RefreshModels(a.ctx)
}

func (a *App) SelectModel(model string) {
	a.controller.SelectModel(a.ctx, model)
}

func (a *App) PullModel(model string) error {
	return a.controller.PullModel(a.ctx, model)
}

func (a *App) DeleteModel(model string) error {
	return a.controller.DeleteModel(a.ctx, model)
}

// Send generates a full answer before returning it.
func (a *App) Send(prompt string) (string, error) {
	return a.controller.Send(a.ctx, prompt)
}

// StreamSend returns once the stream is running; tokens arrive as UI state.
func (a *App) StreamSend(prompt string) error {
	_, err := a.controller.Stream(a.ctx, prompt)
	return err
}

func (a *App) ApproveAnswer(password string) (bool, error) {
	return a.controller.Approve(a.ctx, password)
}

func (a *App) RejectAnswer() {
	a.controller.Reject(a.ctx)
}

func (a *App) SaveSession(title string) (models.ChatSession, error) {
	return a.controller.SaveSession(a.ctx, title)
}

func (a *App) LoadSession(id string) (models.ChatSession, error) {
	return a.controller.LoadSession(a.ctx, id)
}

func (a *App) DeleteSession(id string) error {
	return a.controller.DeleteSession(a.ctx, id)
}

func (a *App) Unlock(password string) (bool, error) {
	return a.controller.Unlock(a.ctx, password)
}

func (a *App) SetParentLock(password, currentPassword, lockMessage string) error {
	return a.controller.SetParentLock(a.ctx, models.SetParentLockArgs{
		Password:        password,
		CurrentPassword: currentPassword,
		LockMessage:     lockMessage,
	})
}

func (a *App) SaveSettings(settings models.Settings) error {
	return a.controller.SaveSettings(a.ctx, settings)
}

func (a *App) SaveKidSafeSettings(settings models.KidSafeSettings) error {
	return a.controller.SaveKidSafe(a.ctx, settings)
}

func (a *App) SaveNetworkSettings(settings models.NetworkSettings) error {
	return a.controller.SaveNetwork(a.ctx, settings)
}
