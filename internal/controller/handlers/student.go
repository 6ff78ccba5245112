package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// HandleMyClasses обрабатывает команду /myclasses: постоянные занятия и кнопки пропуска
func (h *Handlers) HandleMyClasses(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	enrollments, err := h.services.Enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "list_enrollments")
		return
	}
	if len(enrollments) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 У вас нет постоянных занятий. Обратитесь к администратору студии.", nil)
		return
	}

	today := h.clock.Today()
	var sb strings.Builder
	sb.WriteString("📅 <b>Ваши занятия</b>\n\n")
	kb := keyboard.NewBuilder()
	for _, e := range enrollments {
		slot, err := h.services.Slots.Get(ctx, e.SlotID)
		if err != nil {
			h.sendServiceError(ctx, b, chatID, err, "get_slot")
			return
		}
		modality, err := h.services.Directory.GetModality(ctx, slot.ModalityID)
		if err != nil {
			h.sendServiceError(ctx, b, chatID, err, "get_modality")
			return
		}

		fmt.Fprintf(&sb, "• %s %s · %s\n",
			formatting.GetWeekdayName(slot.Weekday),
			formatting.FormatTimeRange(slot.StartTime, slot.EndTime),
			modality.Name)

		next := formatting.NextOccurrence(today, slot.Weekday)
		if !model.ClassStart(next, slot.StartTime, h.clock.Location).After(h.clock.Now()) {
			next = model.AddDays(next, 7)
		}
		kb.Row(keyboard.Button(
			"🙅 Пропущу "+formatting.FormatClass(next, slot),
			keyboard.AbsentData(e.ID, next)))
	}
	sb.WriteString("\nЕсли не сможете прийти, предупредите заранее кнопкой ниже.")

	h.sendMessage(ctx, b, chatID, sb.String(), kb.Build())
}

// HandleCredits обрабатывает команду /credits: баланс кредитов и пропуски для отработки
func (h *Handlers) HandleCredits(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	balance, err := h.services.Credits.Balance(ctx, student.ID)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "credit_balance")
		return
	}
	credits, err := h.services.Credits.ListByStudent(ctx, student.ID)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "list_credits")
		return
	}
	usable, err := h.services.Attendance.UsableEntitlements(ctx, student.ID)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, err, "usable_entitlements")
		return
	}

	today := h.clock.Today()
	var sb strings.Builder
	fmt.Fprintf(&sb, "💳 <b>Кредиты:</b> %d %s\n", balance, formatting.PluralizeCredits(balance))
	for _, c := range credits {
		sb.WriteString(FormatCredit(c, today) + "\n")
	}

	kb := keyboard.NewBuilder()
	if len(usable) > 0 {
		sb.WriteString("\n🔁 <b>Можно отработать:</b>\n")
		for _, n := range usable {
			sb.WriteString(FormatNotice(n) + "\n")
			kb.Row(keyboard.Button(
				"Отработать "+formatting.FormatDateWithWeekday(n.AbsenceDate),
				keyboard.MakeupData(n.ID)))
		}
	}

	var markup *models.InlineKeyboardMarkup
	if kb.Len() > 0 {
		markup = kb.Build()
	}
	h.sendMessage(ctx, b, chatID, sb.String(), markup)
}
