package common

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// WithStudent создаёт HandlerContext и загружает ученика
// При ошибке сам отвечает пользователю
func WithStudent(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.LoadStudent(); err != nil {
		h.Logger.Warn("Failed to load student",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc)
}

// WithStaff создаёт HandlerContext и проверяет права сотрудника
func WithStaff(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.RequireStaff(); err != nil {
		h.Logger.Warn("Staff check failed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc)
}

// HandleError логирует ошибку и показывает пользователю понятный текст.
// Нарушения бизнес-правил пишутся в Warn, остальное в Error.
func HandleError(hc *HandlerContext, err error, operation string) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.String("error_kind", model.ErrorKind(err)),
		zap.Error(err),
	}
	if model.ErrorKind(err) == "unexpected" {
		hc.Handler.Logger.Error("Operation failed", fields...)
	} else {
		hc.Handler.Logger.Warn("Operation rejected", fields...)
	}
	hc.AnswerAlert(ErrorMessage(err))
}
