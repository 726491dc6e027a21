// Package config provides configuration loading, validation, and management
// for the Unisono bot. It reads a YAML file plus BOT_* environment variable
// overrides and validates the result.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the privileged admin chat.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminChatID int64  `mapstructure:"admin_chat_id" validate:"required,gt=0"`

	// BotInfo is populated at runtime after GetMe; not read from config.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the SQLite database path.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// EngineConfig holds the matching engine options.
type EngineConfig struct {
	MinVoiceDurationSeconds int  `mapstructure:"min_voice_duration_seconds" validate:"min=0"`
	DevMode                 bool `mapstructure:"dev_mode"`
}

// MinVoiceDuration returns the submission gate as a duration.
func (c EngineConfig) MinVoiceDuration() time.Duration {
	return time.Duration(c.MinVoiceDurationSeconds) * time.Second
}

// GeminiConfig holds the optional AI prompt-generation settings.
type GeminiConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	APIKey            string  `mapstructure:"api_key"`
	ModelName         string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0"`
	PromptCount       int     `mapstructure:"prompt_count"        validate:"min=1,max=100"`
}

// SchedulerConfig holds the scheduled task table, keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named task with a cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds all user-facing copy.
type MessagesConfig struct {
	Welcome           string `mapstructure:"welcome"`
	WelcomeVoice      string `mapstructure:"welcome_voice"`
	PromptIntro       string `mapstructure:"prompt_intro"`
	Help              string `mapstructure:"help"`
	TextTeaser        string `mapstructure:"text_teaser"`
	VoiceTooShort     string `mapstructure:"voice_too_short"`
	Staged            string `mapstructure:"staged"`
	Published         string `mapstructure:"published"`
	Discarded         string `mapstructure:"discarded"`
	StartListening    string `mapstructure:"start_listening"`
	NoCandidates      string `mapstructure:"no_candidates"`
	OwnerLiked        string `mapstructure:"owner_liked"`
	RaterLiked        string `mapstructure:"rater_liked"`
	Match             string `mapstructure:"match"`
	MatchRecall       string `mapstructure:"match_recall"`
	Epilogue          string `mapstructure:"epilogue"`
	ReactionPrompt    string `mapstructure:"reaction_prompt"`
	ReactionDelivered string `mapstructure:"reaction_delivered"`
	ReactionIncoming  string `mapstructure:"reaction_incoming"`
	NotAuthorized     string `mapstructure:"not_authorized"`
	ResetDone         string `mapstructure:"reset_done"`
	GeneralError      string `mapstructure:"general_error"`
}

// LoadConfig reads configuration from the given path, layering BOT_* env
// variables over the file and defaults, then validates the result. A missing
// config file is fine; defaults and env cover everything optional.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Info("Configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Gemini.Enabled && cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("configuration validation failed: gemini.api_key is required when gemini.enabled is true")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "unisono.db")

	v.SetDefault("engine.min_voice_duration_seconds", 5)
	v.SetDefault("engine.dev_mode", false)

	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 5)
	v.SetDefault("gemini.prompt_count", 20)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")
	v.SetDefault("scheduler.tasks.prompt_refresh.enabled", false)
	v.SetDefault("scheduler.tasks.prompt_refresh.schedule", "0 6 * * *")

	v.SetDefault("messages.welcome", "Nice to hear from you!\nWant to find someone you are on the same wavelength with?\nSend me a voice message so that others get to know you.")
	// Telegram file id of an optional greeting voice note, sent on /start when set.
	v.SetDefault("messages.welcome_voice", "")
	v.SetDefault("messages.prompt_intro", "You may use this random prompt as a starter:")
	v.SetDefault("messages.help", "Send a voice message to introduce yourself, then start listening to others. Like what you hear and see if they like you back.")
	v.SetDefault("messages.text_teaser", "Let us hear your wonderful voice.")
	v.SetDefault("messages.voice_too_short", "Oh this was a bit too short!\nPlease elaborate more.")
	v.SetDefault("messages.staged", "Nice to hear you! What a great voice you have.\nPublish it so others can listen, or discard it and record a new one.")
	v.SetDefault("messages.published", "Your message is out there now.\nIf you like to replace it, just send a new one any time.")
	v.SetDefault("messages.discarded", "Discarded. Send a new voice message whenever you are ready.")
	v.SetDefault("messages.start_listening", "Start listening to others' messages to find a match:")
	v.SetDefault("messages.no_candidates", "There are no messages that you haven't yet seen.")
	v.SetDefault("messages.owner_liked", "Someone liked your message!")
	v.SetDefault("messages.rater_liked", "Liked! You can send them a direct voice reply, or keep listening.")
	v.SetDefault("messages.match", "You got a match with: %s")
	v.SetDefault("messages.match_recall", "For you to recall, hear their voice again:")
	v.SetDefault("messages.epilogue", "Any thoughts about Unisono? Tell me in the feedback group!")
	v.SetDefault("messages.reaction_prompt", "Record your reply now. Your next voice message goes directly to them.")
	v.SetDefault("messages.reaction_delivered", "Your reply was delivered.")
	v.SetDefault("messages.reaction_incoming", "Someone you liked sent you a voice reply:")
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.reset_done", "done")
	v.SetDefault("messages.general_error", "An error occurred. Please try again later.")
}
