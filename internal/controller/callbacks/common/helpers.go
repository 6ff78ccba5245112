package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// IsMessageNotModifiedError Telegram отвечает ошибкой, если текст и клавиатура не изменились
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// ParseIDFromCallback извлекает ID из callback data
// Например: "approve:123" -> 123
func ParseIDFromCallback(data string) (int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return 0, ErrInvalidFormat
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return id, nil
}

// ParseIDAndDate разбирает "prefix:id:YYYY-MM-DD"
func ParseIDAndDate(data string) (int64, time.Time, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return 0, time.Time{}, ErrInvalidFormat
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	date, err := model.ParseDate(parts[2])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return id, date, nil
}

// ParseMakeupTarget разбирает "makeup_to:noticeID:slotID:YYYY-MM-DD"
func ParseMakeupTarget(data string) (noticeID, slotID int64, date time.Time, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return 0, 0, time.Time{}, ErrInvalidFormat
	}
	if noticeID, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if slotID, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if date, err = model.ParseDate(parts[3]); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return noticeID, slotID, date, nil
}

// ParseDateFromCallback разбирает "prefix:YYYY-MM-DD"
func ParseDateFromCallback(data string) (time.Time, error) {
	_, raw, ok := strings.Cut(data, ":")
	if !ok {
		return time.Time{}, ErrInvalidFormat
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return date, nil
}
