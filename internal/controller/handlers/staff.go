package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/keyboard"
)

// maxPendingShown больше заявок в одном ответе не показываем
const maxPendingShown = 20

// HandlePending обрабатывает команду /pending: заявки, ждущие решения
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireStaff(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	pending, err := h.services.Reschedule.ListPending(ctx)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "list_pending")
		return
	}
	if len(pending) == 0 {
		h.sendMessage(ctx, b, chatID, "✅ Нет заявок, ожидающих решения", nil)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("⏳ %d %s ждут решения",
		len(pending), formatting.PluralizeRequests(len(pending))), nil)
	for i, req := range pending {
		if i == maxPendingShown {
			h.sendMessage(ctx, b, chatID, fmt.Sprintf("… и ещё %d", len(pending)-maxPendingShown), nil)
			break
		}
		h.sendMessage(ctx, b, chatID, common.DescribeRequest(ctx, h.services, req), keyboard.RequestDecision(req.ID))
	}
}

// HandleWeek обрабатывает команду /week: картинка загрузки студии на текущую неделю
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireStaff(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	if err := common.SendWeekImage(ctx, b, h.deps, chatID, h.clock.Today()); err != nil {
		h.logger.Error("Failed to send week image", zap.Error(err))
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
	}
}
