package controller

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/state"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	services *service.Services,
	clock service.Clock,
	staffIDs []int64,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()

	callbackHandler := callbacks.NewHandler(
		services,
		clock,
		staffIDs,
		state.NewAdapter(stateManager),
		logger,
	)
	cmdHandlers := handlers.NewHandlers(callbackHandler.Handler, stateManager)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myclasses", bot.MatchTypeExact, c.handlers.HandleMyClasses)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/credits", bot.MatchTypeExact, c.handlers.HandleCredits)

	// Команды для сотрудников
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.handlers.HandlePending)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.handlers.HandleWeek)

	// Текстовые сообщения для диалогов с состояниями
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Нажатия на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "myclasses", Description: "📅 Мои занятия"},
		{Command: "credits", Description: "💳 Кредиты и отработки"},
		{Command: "help", Description: "❓ Справка"},
		{Command: "pending", Description: "⏳ Заявки на перенос (сотрудники)"},
		{Command: "week", Description: "🗓 Загрузка недели (сотрудники)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены контекста
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
