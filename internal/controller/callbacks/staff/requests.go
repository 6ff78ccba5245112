package staff

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

// HandleApprove одобряет заявку на перенос
func HandleApprove(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithStaff(ctx, b, callback, h, func(hc *common.HandlerContext) {
		requestID, err := common.ParseIDFromCallback(callback.Data)
		if err != nil {
			common.HandleError(hc, err, "parse_request_id")
			return
		}

		req, err := h.Services.Reschedule.Approve(ctx, requestID, hc.TelegramID)
		if err != nil && service.IsRetryable(err) {
			// конкурентное одобрение того же места, одна повторная попытка
			req, err = h.Services.Reschedule.Approve(ctx, requestID, hc.TelegramID)
		}
		if err != nil {
			common.HandleError(hc, err, "approve_request")
			refreshRequest(hc, requestID)
			return
		}

		h.Logger.Info("Request approved via bot",
			zap.Int64("request_id", requestID),
			zap.Int64("staff_id", hc.TelegramID))
		hc.Answer("✅ Заявка одобрена")
		if err := hc.EditMessage(common.DescribeRequest(ctx, h.Services, req), nil); err != nil {
			h.Logger.Warn("Failed to edit request message", zap.Error(err))
		}
		common.NotifyStudent(ctx, b, h, req)
	})
}

// HandleReject запрашивает у сотрудника причину отклонения
func HandleReject(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithStaff(ctx, b, callback, h, func(hc *common.HandlerContext) {
		requestID, err := common.ParseIDFromCallback(callback.Data)
		if err != nil {
			common.HandleError(hc, err, "parse_request_id")
			return
		}

		req, err := h.Services.Reschedule.Get(ctx, requestID)
		if err != nil {
			common.HandleError(hc, err, "get_request")
			return
		}
		if !req.IsPending() {
			common.HandleError(hc, model.ErrAlreadyProcessed, "reject_request")
			refreshRequest(hc, requestID)
			return
		}

		hc.SetState(callbacktypes.StateRejectReason)
		hc.SetData(callbacktypes.KeyRequestID, requestID)
		hc.Answer("")
		err = hc.SendMessage(fmt.Sprintf("✏️ Напишите причину отклонения заявки #%d\n\n/cancel для отмены", requestID), nil)
		if err != nil {
			h.Logger.Error("Failed to ask rejection reason", zap.Error(err))
		}
	})
}

// refreshRequest перерисовывает сообщение с актуальным статусом заявки
func refreshRequest(hc *common.HandlerContext, requestID int64) {
	ctx, cancel := context.WithTimeout(hc.Ctx, 5*time.Second)
	defer cancel()

	req, err := hc.Handler.Services.Reschedule.Get(ctx, requestID)
	if err != nil || req.IsPending() {
		return
	}
	if err := hc.EditMessage(common.DescribeRequest(ctx, hc.Handler.Services, req), nil); err != nil {
		hc.Handler.Logger.Debug("Failed to refresh request message", zap.Error(err))
	}
}
