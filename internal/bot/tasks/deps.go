// Package tasks implements scheduled background tasks for the Unisono bot:
// database maintenance and conversation-prompt refresh.
package tasks

import (
	"log/slog"

	"github.com/unisonobot/unisono/internal/config"
	"github.com/unisonobot/unisono/internal/database"
	"github.com/unisonobot/unisono/internal/gemini"
	"github.com/unisonobot/unisono/internal/prompts"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger       *slog.Logger
	Store        database.Store
	GeminiClient gemini.Client
	PromptPool   *prompts.Pool
	Config       *config.Config
}
