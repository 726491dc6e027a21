package handlers

import (
	"log/slog"

	"github.com/unisonobot/unisono/internal/config"
	"github.com/unisonobot/unisono/internal/database"
	"github.com/unisonobot/unisono/internal/engine"
	"github.com/unisonobot/unisono/internal/prompts"
)

// HandlerDeps provides dependencies for Telegram command and callback handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Engine  *engine.Engine
	Prompts *prompts.Pool
}
