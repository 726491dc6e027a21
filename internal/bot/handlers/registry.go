package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// Callback data prefixes. The rating and staging buttons carry the message id
// after the prefix; the "next" button is a bare command.
const (
	cbLike     = "Y"
	cbSkip     = "N"
	cbNext     = "M"
	cbPublish  = "P"
	cbDiscard  = "D"
	cbReaction = "R"
)

// RegisteredHandler represents a handler with its registration pattern and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all bot commands and
// callback-query handlers, configured with appropriate middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	adminMiddleware := []tgbot.Middleware{AdminOnly(deps)}

	handlers["/stats"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "stats",
		Handler:     NewStatsHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  adminMiddleware,
	}

	devAdminMiddleware := []tgbot.Middleware{AdminOnly(deps), DevModeOnly(deps)}

	handlers["/reset_ratings"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "reset_ratings",
		Handler:     NewResetRatingsHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  devAdminMiddleware,
	}
	handlers["/reset_all"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "reset_all",
		Handler:     NewResetAllHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  devAdminMiddleware,
	}

	handlers["cb_like"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     cbLike,
		Handler:     NewVerdictHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["cb_skip"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     cbSkip,
		Handler:     NewVerdictHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["cb_next"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     cbNext,
		Handler:     NewNextHandler(deps),
		MatchType:   tgbot.MatchTypeExact,
	}
	handlers["cb_publish"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     cbPublish,
		Handler:     NewStagingHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["cb_discard"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     cbDiscard,
		Handler:     NewStagingHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["cb_reaction"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     cbReaction,
		Handler:     NewReactionStartHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	return handlers
}
