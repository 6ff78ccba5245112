package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/state"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// maxReasonLength длина причины, как в validate-тегах модели
const maxReasonLength = 500

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := update.Message.From
	telegramID := user.ID
	student, err := h.services.Directory.RegisterStudent(ctx, displayName(user), &telegramID)
	if err != nil {
		h.sendServiceError(ctx, b, update.Message.Chat.ID, err, "register_student")
		return
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот студии: здесь можно предупредить о пропуске и записаться на отработку.\n\n"+
			"/myclasses - Мои занятия\n"+
			"/credits - Кредиты и отработки\n"+
			"/help - Справка",
		html.EscapeString(student.Name),
	)
	if h.deps.IsStaff(telegramID) {
		text += "\n\nДля сотрудников:\n/pending - Заявки на перенос\n/week - Загрузка недели"
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := fmt.Sprintf("📚 <b>Как это работает</b>\n\n"+
		"• Предупредите о пропуске не позднее чем за 24 часа до начала занятия, "+
		"и после занятия у вас появится право на отработку.\n"+
		"• Отработать можно в течение %d %s после пропуска в любом занятии со свободным местом.\n"+
		"• Заявку на отработку подтверждает администратор, место за вами держится до решения.\n"+
		"• Кредиты выдаются, когда студия отменяет занятие, и действуют до указанной даты.\n\n"+
		"/myclasses - Мои занятия\n"+
		"/credits - Кредиты и отработки\n"+
		"/cancel - Отменить текущее действие",
		model.MakeupWindowDays, formatting.PluralizeDays(model.MakeupWindowDays))
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.", nil)
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	// Команды обрабатываются другими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	switch current := h.stateManager.GetState(telegramID); current {
	case state.StateNone:
		return
	case state.StateRejectReason:
		h.handleRejectReason(ctx, b, update)
	case state.StateAbsenceReason:
		h.handleAbsenceReason(ctx, b, update)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(current)))
		h.stateManager.ClearState(telegramID)
	}
}

// handleRejectReason отклоняет заявку с причиной, введённой сотрудником
func (h *Handlers) handleRejectReason(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !h.requireStaff(ctx, b, update) {
		h.stateManager.ClearState(telegramID)
		return
	}
	requestID, ok := h.stateManager.GetInt64(telegramID, state.KeyRequestID)
	if !ok {
		h.stateManager.ClearState(telegramID)
		h.sendError(ctx, b, chatID, "❌ Заявка не найдена. Откройте /pending заново")
		return
	}

	reason, ok := h.readReason(ctx, b, update)
	if !ok {
		return
	}
	h.stateManager.ClearState(telegramID)

	req, err := h.services.Reschedule.Reject(ctx, requestID, telegramID, reason)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "reject_request")
		return
	}

	h.logger.Info("Request rejected via bot",
		zap.Int64("request_id", requestID),
		zap.Int64("staff_id", telegramID))
	h.sendMessage(ctx, b, chatID, common.DescribeRequest(ctx, h.services, req), nil)
	common.NotifyStudent(ctx, b, h.deps, req)
}

// handleAbsenceReason записывает уведомление о пропуске
func (h *Handlers) handleAbsenceReason(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	enrollmentID, okID := h.stateManager.GetInt64(telegramID, state.KeyEnrollmentID)
	rawDate, okDate := h.stateManager.GetData(telegramID, state.KeyDate)
	dateStr, _ := rawDate.(string)
	if !okID || !okDate {
		h.stateManager.ClearState(telegramID)
		h.sendError(ctx, b, chatID, "❌ Данные диалога потеряны. Откройте /myclasses заново")
		return
	}
	date, err := model.ParseDate(dateStr)
	if err != nil {
		h.stateManager.ClearState(telegramID)
		h.sendServiceError(ctx, b, chatID, err, "absence_date")
		return
	}

	reason, ok := h.readReason(ctx, b, update)
	if !ok {
		return
	}
	if reason == "-" {
		reason = ""
	}
	h.stateManager.ClearState(telegramID)

	notice, err := h.services.Attendance.DeclareAbsenceNotice(ctx, model.AbsenceNoticeInput{
		EnrollmentID: enrollmentID,
		AbsenceDate:  date,
		Reason:       reason,
	})
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "declare_absence")
		return
	}

	text := fmt.Sprintf("✅ Пропуск %s записан.", formatting.FormatDateWithWeekday(notice.AbsenceDate))
	if notice.HasMakeupRight {
		text += fmt.Sprintf("\n\nПосле занятия вы сможете отработать его до %s через /credits.",
			formatting.FormatDate(notice.MakeupDeadline()))
	} else {
		text += "\n\n⚠️ Предупреждение пришло меньше чем за 24 часа, права на отработку нет."
	}
	h.sendMessage(ctx, b, chatID, text, nil)
}

// readReason читает причину из сообщения и проверяет длину
func (h *Handlers) readReason(ctx context.Context, b *bot.Bot, update *models.Update) (string, bool) {
	reason := strings.TrimSpace(update.Message.Text)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		h.sendError(ctx, b, update.Message.Chat.ID,
			fmt.Sprintf("❌ Слишком длинно, максимум %d символов. Попробуйте ещё раз или /cancel", maxReasonLength))
		return "", false
	}
	return reason, true
}
