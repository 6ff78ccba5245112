package handlers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// displayName имя ученика из профиля Telegram
func displayName(user *models.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	if name == "" {
		name = fmt.Sprintf("id%d", user.ID)
	}
	return name
}

// FormatCredit строка кредита для /credits
func FormatCredit(c *model.Credit, today time.Time) string {
	state := "✅"
	switch {
	case !c.IsActive:
		state = "⚫️"
	case c.IsExpiredOn(today):
		state = "⌛"
	case c.Remaining() == 0:
		state = "✔️"
	}
	return fmt.Sprintf("%s %d из %d, до %s · %s",
		state, c.Remaining(), c.QuantityGranted, formatting.FormatDate(c.ExpiryDate), html.EscapeString(c.Reason))
}

// FormatNotice строка уведомления о пропуске
func FormatNotice(n *model.AbsenceNotice) string {
	line := fmt.Sprintf("%s %s", formatting.GetNoticeStatusDisplay(n.Status), formatting.FormatDateWithWeekday(n.AbsenceDate))
	if n.HasMakeupRight && n.IsOpen() {
		line += fmt.Sprintf(", отработка до %s", formatting.FormatDate(n.MakeupDeadline()))
	}
	return line
}
