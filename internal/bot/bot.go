package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/handlers"
	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	errors "github.com/Proton-105/queue-bot/internal/errors"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/idempotency"
	"github.com/Proton-105/queue-bot/internal/menu"
	"github.com/Proton-105/queue-bot/internal/middleware"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/pkg/config"
)

// Deps are the application services the bot shell talks to.
type Deps struct {
	Conversation handlers.Conversation
	FSM          state.StateMachine
	Catalog      *i18n.Manager
	Users        UserRegistrar
	Activity     ActivityTracker
	Idempotency  idempotency.Manager
	RateLimit    *middleware.RateLimitMiddleware
	SentryOn     bool
}

// Bot wraps telebot.Bot with the middleware chain and command table.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	router     *Router
	errHandler *errors.Handler
}

// NewTelebot builds the Telegram client. It is created before the bot shell because
// the outbound platform needs it too.
func NewTelebot(cfg config.BotConfig) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Token,
	}

	if cfg.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Listen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}
	return tb, nil
}

// New wires handlers and middlewares onto tb.
func New(tb *telebot.Bot, deps Deps, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		router:     NewRouter(log),
		errHandler: errors.NewHandler(log, deps.SentryOn),
	}

	b.setupRouter(deps)

	if deps.RateLimit != nil {
		b.telebot.Use(deps.RateLimit.Handle)
	}

	b.registerTelebotHandlers()

	return b
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(deps Deps) {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Idempotency(deps.Idempotency, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(AuthMiddleware(deps.Users, b.log))
	b.router.Use(LastActiveMiddleware(deps.Activity))
	b.router.Use(middleware.Metrics)

	conv := deps.Conversation
	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(conv, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(deps.FSM, deps.Catalog, b.log))
	b.router.RegisterCommand(CommandListings, handlers.NewTokenHandler(conv, menu.TokenShowListings))
	b.router.RegisterCommand(CommandInterests, handlers.NewTokenHandler(conv, menu.TokenShowInterests))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(deps.Catalog, CommandListings, CommandInterests, CommandCancel, CommandHelp))

	callback := handlers.NewCallbackHandler(conv, b.log)
	b.router.RegisterCallback(keyboard.PrefixQuickReply+keyboard.CallbackDataSeparator, callback)
	b.router.RegisterCallback(keyboard.PrefixPostback+keyboard.CallbackDataSeparator, callback)

	b.router.SetAttachment(handlers.NewAttachmentHandler(conv))
	b.router.SetDefault(handlers.NewTextHandler(conv))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnPhoto, b.router.Route)
	b.telebot.Handle(telebot.OnDocument, b.router.Route)

	for _, cmd := range []string{CommandStart, CommandCancel, CommandListings, CommandInterests, CommandHelp} {
		b.telebot.Handle(cmd, b.router.Route)
	}
}
