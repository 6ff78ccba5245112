package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/staff"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/student"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	switch {
	case data == keyboard.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Staff =====
	case strings.HasPrefix(data, keyboard.PrefixApprove):
		staff.HandleApprove(ctx, b, callback, h)
	case strings.HasPrefix(data, keyboard.PrefixReject):
		staff.HandleReject(ctx, b, callback, h)
	case strings.HasPrefix(data, keyboard.PrefixWeek):
		handleWeek(ctx, b, callback, h)

	// ===== Student =====
	case strings.HasPrefix(data, keyboard.PrefixAbsent):
		student.HandleAbsent(ctx, b, callback, h)
	case strings.HasPrefix(data, keyboard.PrefixMakeupTo):
		student.HandleMakeupTarget(ctx, b, callback, h)
	case strings.HasPrefix(data, keyboard.PrefixMakeup):
		student.HandleMakeup(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Неизвестная команда")
	}
}

func handleWeek(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithStaff(ctx, b, callback, h, func(hc *common.HandlerContext) {
		weekStart, err := common.ParseDateFromCallback(callback.Data)
		if err != nil {
			common.HandleError(hc, err, "parse_week")
			return
		}
		hc.Answer("")
		if err := common.SendWeekImage(ctx, b, h, hc.ChatID, weekStart); err != nil {
			h.Logger.Error("Failed to send week image", zap.Error(err))
		}
	})
}
