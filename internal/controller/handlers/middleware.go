package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// requireStudent находит ученика по Telegram ID
// Возвращает student и true если OK, nil и false если нет
func (h *Handlers) requireStudent(ctx context.Context, b *bot.Bot, update *models.Update) (*model.Student, bool) {
	if update.Message == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	student, err := h.services.Directory.GetStudentByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get student", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return nil, false
	}
	if student == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(common.ErrNotRegistered))
		return nil, false
	}

	return student, true
}

// requireStaff проверяет что пользователь сотрудник студии
func (h *Handlers) requireStaff(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	if !h.deps.IsStaff(update.Message.From.ID) {
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(common.ErrNotStaff))
		return false
	}
	return true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendServiceError логирует ошибку сервиса и показывает понятный текст
func (h *Handlers) sendServiceError(ctx context.Context, b *bot.Bot, chatID int64, err error, operation string) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Int64("chat_id", chatID),
		zap.String("error_kind", model.ErrorKind(err)),
		zap.Error(err),
	}
	if model.ErrorKind(err) == "unexpected" {
		h.logger.Error("Command failed", fields...)
	} else {
		h.logger.Warn("Command rejected", fields...)
	}
	h.sendError(ctx, b, chatID, common.ErrorMessage(err))
}

// sendMessage отправляет HTML-сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
