package student

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// HandleMakeup показывает свободные занятия для отработки пропуска
func HandleMakeup(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithStudent(ctx, b, callback, h, func(hc *common.HandlerContext) {
		noticeID, err := common.ParseIDFromCallback(callback.Data)
		if err != nil {
			common.HandleError(hc, err, "parse_notice_id")
			return
		}

		notice, err := common.FindUsableNotice(ctx, h.Services, hc.Student.ID, noticeID)
		if err != nil {
			common.HandleError(hc, err, "find_notice")
			return
		}

		options, err := common.MakeupOptions(ctx, h, notice)
		if err != nil {
			common.HandleError(hc, err, "makeup_options")
			return
		}
		if len(options) == 0 {
			hc.AnswerAlert(fmt.Sprintf("😔 До %s нет свободных мест", formatting.FormatDate(notice.MakeupDeadline())))
			return
		}

		kb := keyboard.NewBuilder()
		for _, o := range options {
			label := fmt.Sprintf("%s · %s (%d)", formatting.FormatClass(o.Date, o.Slot), o.Modality, o.Free)
			kb.Row(keyboard.Button(label, keyboard.MakeupTargetData(notice.ID, o.Slot.ID, o.Date)))
		}

		hc.Answer("")
		text := fmt.Sprintf("🔁 <b>Отработка пропуска %s</b>\n\nВыберите занятие до %s. В скобках число свободных мест.",
			formatting.FormatDateWithWeekday(notice.AbsenceDate), formatting.FormatDate(notice.MakeupDeadline()))
		if err := hc.EditMessage(text, kb.Build()); err != nil {
			h.Logger.Error("Failed to show makeup options", zap.Error(err))
		}
	})
}

// HandleMakeupTarget создаёт заявку на отработку в выбранное занятие
func HandleMakeupTarget(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithStudent(ctx, b, callback, h, func(hc *common.HandlerContext) {
		noticeID, slotID, date, err := common.ParseMakeupTarget(callback.Data)
		if err != nil {
			common.HandleError(hc, err, "parse_makeup_target")
			return
		}

		notice, err := common.FindUsableNotice(ctx, h.Services, hc.Student.ID, noticeID)
		if err != nil {
			common.HandleError(hc, err, "find_notice")
			return
		}

		req, err := h.Services.Reschedule.CreateRequest(ctx, model.CreateRequestInput{
			StudentID:          hc.Student.ID,
			OriginEnrollmentID: &notice.EnrollmentID,
			OriginSlotID:       notice.SlotID,
			OriginDate:         notice.AbsenceDate,
			DestinationSlotID:  slotID,
			DestinationDate:    date,
			IsMakeup:           true,
			NoticeID:           &notice.ID,
			RequestedBy:        model.RequestedByStudent,
			ActorID:            hc.Student.ID,
		})
		if err != nil {
			common.HandleError(hc, err, "create_makeup_request")
			return
		}

		h.Logger.Info("Makeup requested via bot",
			zap.Int64("request_id", req.ID),
			zap.Int64("student_id", hc.Student.ID))
		hc.Answer("📨 Заявка отправлена")
		text := "📨 Заявка отправлена сотрудникам студии. Место за вами до решения.\n\n" +
			common.DescribeRequest(ctx, h.Services, req)
		if err := hc.EditMessage(text, nil); err != nil {
			h.Logger.Warn("Failed to edit makeup message", zap.Error(err))
		}
		common.NotifyStaff(ctx, b, h, req)
	})
}
