package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPromptRefreshTask creates the scheduled task that regenerates the
// conversation-starter prompt pool via the AI client. On failure the pool
// keeps its current contents.
func newPromptRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "prompt_refresh")
	count := deps.Config.Gemini.PromptCount

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled prompt refresh task...", "requested", count)
		startTime := time.Now()

		generated, err := deps.GeminiClient.GeneratePrompts(ctx, count)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Prompt refresh task failed, keeping current pool",
				"error", err, "duration", duration)

			return fmt.Errorf("prompt refresh failed: %w", err)
		}

		deps.PromptPool.Replace(generated)

		log.InfoContext(ctx, "Scheduled prompt refresh task completed successfully",
			"generated", len(generated), "pool_size", deps.PromptPool.Len(), "duration", duration)
		return nil
	}
}
