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
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// HandleAbsent начинает диалог предупреждения о пропуске занятия
func HandleAbsent(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithStudent(ctx, b, callback, h, func(hc *common.HandlerContext) {
		enrollmentID, date, err := common.ParseIDAndDate(callback.Data)
		if err != nil {
			common.HandleError(hc, err, "parse_absence")
			return
		}

		enrollment, err := ownEnrollment(hc, enrollmentID)
		if err != nil {
			common.HandleError(hc, err, "absence_enrollment")
			return
		}
		slot, err := h.Services.Slots.Get(ctx, enrollment.SlotID)
		if err != nil {
			common.HandleError(hc, err, "absence_slot")
			return
		}

		hc.SetState(callbacktypes.StateAbsenceReason)
		hc.SetData(callbacktypes.KeyEnrollmentID, enrollmentID)
		hc.SetData(callbacktypes.KeyDate, date.Format(model.DateLayout))
		hc.Answer("")

		h.Logger.Info("Absence dialog started",
			zap.Int64("student_id", hc.Student.ID),
			zap.Int64("enrollment_id", enrollmentID),
			zap.Time("date", date))

		text := fmt.Sprintf(
			"📝 Пропуск занятия %s\n\nНапишите причину одним сообщением или отправьте «-», если не хотите указывать.\n"+
				"Предупреждение не позднее чем за 24 часа даёт право на отработку в течение %d %s.\n\n/cancel для отмены",
			formatting.FormatClass(date, slot), model.MakeupWindowDays, formatting.PluralizeDays(model.MakeupWindowDays))
		if err := hc.SendMessage(text, nil); err != nil {
			h.Logger.Error("Failed to ask absence reason", zap.Error(err))
		}
	})
}

// ownEnrollment возвращает активную запись, если она принадлежит ученику
func ownEnrollment(hc *common.HandlerContext, enrollmentID int64) (*model.Enrollment, error) {
	enrollments, err := hc.Handler.Services.Enrollments.ListByStudent(hc.Ctx, hc.Student.ID)
	if err != nil {
		return nil, err
	}
	for _, e := range enrollments {
		if e.ID == enrollmentID {
			return e, nil
		}
	}
	return nil, common.ErrForeignRecord
}
