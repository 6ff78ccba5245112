package common

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

// MaxMakeupOptions сколько вариантов отработки показывать кнопками
const MaxMakeupOptions = 12

// MakeupOption свободное занятие, куда можно перенести пропуск
type MakeupOption struct {
	Slot     *model.Slot
	Date     time.Time
	Modality string
	Free     int
}

// modalityNames кеширует названия модальностей на время одного запроса
type modalityNames struct {
	services *service.Services
	names    map[int64]string
}

func newModalityNames(services *service.Services) *modalityNames {
	return &modalityNames{services: services, names: make(map[int64]string)}
}

func (m *modalityNames) get(ctx context.Context, id int64) (string, error) {
	if name, ok := m.names[id]; ok {
		return name, nil
	}
	modality, err := m.services.Directory.GetModality(ctx, id)
	if err != nil {
		return "", err
	}
	m.names[id] = modality.Name
	return modality.Name, nil
}

// FindUsableNotice ищет среди пропусков ученика тот, что ещё можно отработать
func FindUsableNotice(ctx context.Context, services *service.Services, studentID, noticeID int64) (*model.AbsenceNotice, error) {
	usable, err := services.Attendance.UsableEntitlements(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for _, n := range usable {
		if n.ID == noticeID {
			return n, nil
		}
	}
	return nil, model.ErrEntitlementNotUsable
}

// MakeupOptions подбирает занятия со свободными местами в окне отработки
func MakeupOptions(ctx context.Context, h *callbacktypes.Handler, notice *model.AbsenceNotice) ([]MakeupOption, error) {
	slots, err := h.Services.Slots.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := h.Services.Enrollments.ListByStudent(ctx, notice.StudentID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[int64]bool, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.SlotID] = true
	}

	names := newModalityNames(h.Services)
	now := h.Clock.Now()
	var options []MakeupOption
	for day := h.Clock.Today(); !day.After(notice.MakeupDeadline()); day = model.AddDays(day, 1) {
		holiday, err := h.Services.Holidays.IsHoliday(ctx, day)
		if err != nil {
			return nil, err
		}
		if holiday {
			continue
		}
		for _, slot := range slots {
			if !slot.FallsOn(day) || enrolled[slot.ID] {
				continue
			}
			if !model.ClassStart(day, slot.StartTime, h.Clock.Location).After(now) {
				continue
			}
			occ, err := h.Services.Slots.Occupancy(ctx, slot.ID, day)
			if err != nil {
				return nil, err
			}
			if occ.Free() == 0 {
				continue
			}
			name, err := names.get(ctx, slot.ModalityID)
			if err != nil {
				return nil, err
			}
			options = append(options, MakeupOption{Slot: slot, Date: day, Modality: name, Free: occ.Free()})
			if len(options) == MaxMakeupOptions {
				return options, nil
			}
		}
	}
	return options, nil
}

// BuildWeekView собирает занятия недели с загрузкой и праздниками
func BuildWeekView(ctx context.Context, h *callbacktypes.Handler, weekStart time.Time) (WeekView, error) {
	weekStart = formatting.WeekStart(weekStart)
	view := WeekView{
		Start:    weekStart,
		Holidays: make(map[time.Time]string),
		Now:      h.Clock.Now().In(h.Clock.Location),
	}

	holidays, err := h.Services.Holidays.List(ctx)
	if err != nil {
		return view, err
	}
	weekEnd := model.AddDays(weekStart, 6)
	for _, hd := range holidays {
		if !hd.Date.Before(weekStart) && !hd.Date.After(weekEnd) {
			view.Holidays[hd.Date] = hd.Reason
		}
	}

	slots, err := h.Services.Slots.ListActive(ctx)
	if err != nil {
		return view, err
	}
	names := newModalityNames(h.Services)
	for _, slot := range slots {
		day := formatting.NextOccurrence(weekStart, slot.Weekday)
		occ, err := h.Services.Slots.Occupancy(ctx, slot.ID, day)
		if err != nil {
			return view, err
		}
		name, err := names.get(ctx, slot.ModalityID)
		if err != nil {
			return view, err
		}
		view.Slots = append(view.Slots, WeekSlot{
			Slot:     slot,
			Date:     day,
			Modality: name,
			Taken:    occ.Enrolled + occ.Pending,
			Capacity: occ.Capacity,
		})
	}
	return view, nil
}

// SendWeekImage отправляет картинку недели с навигацией
func SendWeekImage(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, chatID int64, weekStart time.Time) error {
	view, err := BuildWeekView(ctx, h, weekStart)
	if err != nil {
		return fmt.Errorf("build week view: %w", err)
	}
	img, err := GenerateWeekImage(view)
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("🗓 Неделя с %s", formatting.FormatDate(view.Start))
	for i := 0; i < 7; i++ {
		date := model.AddDays(view.Start, i)
		if reason, ok := view.Holidays[date]; ok {
			caption += fmt.Sprintf("\n🎉 %s: %s", formatting.FormatDateWithWeekday(date), reason)
		}
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(img)},
		Caption:     caption,
		ReplyMarkup: keyboard.WeekNavigation(view.Start),
	})
	if err != nil {
		return fmt.Errorf("send week image: %w", err)
	}
	return nil
}

// DescribeRequest текст заявки на перенос для сотрудника и ученика
func DescribeRequest(ctx context.Context, services *service.Services, req *model.RescheduleRequest) string {
	var sb strings.Builder
	status := formatting.GetRequestStatusDisplay(req.Status)
	fmt.Fprintf(&sb, "<b>Заявка #%d</b> %s\n", req.ID, status)

	if student, err := services.Directory.GetStudent(ctx, req.StudentID); err == nil {
		fmt.Fprintf(&sb, "👤 %s\n", student.Name)
	}
	origin := formatting.FormatDateWithWeekday(req.OriginDate)
	if slot, err := services.Slots.Get(ctx, req.OriginSlotID); err == nil {
		origin = formatting.FormatClass(req.OriginDate, slot)
	}
	fmt.Fprintf(&sb, "С: %s\n", origin)
	fmt.Fprintf(&sb, "На: %s %s\n",
		formatting.FormatDateWithWeekday(req.DestinationDate),
		formatting.FormatTimeRange(req.DestinationStartTime, req.DestinationEndTime))

	if req.IsMakeup {
		sb.WriteString("🔁 Отработка пропуска\n")
	}
	if req.RejectionReason != "" {
		fmt.Fprintf(&sb, "Причина отказа: %s\n", req.RejectionReason)
	}
	return sb.String()
}

// NotifyStaff рассылает заявку сотрудникам с кнопками решения
func NotifyStaff(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, req *model.RescheduleRequest) {
	text := "📨 Новая заявка на перенос\n\n" + DescribeRequest(ctx, h.Services, req)
	for _, staffID := range h.StaffIDs {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      staffID,
			Text:        text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: keyboard.RequestDecision(req.ID),
		})
		if err != nil {
			h.Logger.Warn("Failed to notify staff",
				zap.Int64("staff_id", staffID),
				zap.Int64("request_id", req.ID),
				zap.Error(err))
		}
	}
}

// NotifyStudent сообщает ученику о решении, если у него есть Telegram
func NotifyStudent(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, req *model.RescheduleRequest) {
	student, err := h.Services.Directory.GetStudent(ctx, req.StudentID)
	if err != nil || student.TelegramID == nil {
		return
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *student.TelegramID,
		Text:      DescribeRequest(ctx, h.Services, req),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.Logger.Warn("Failed to notify student",
			zap.Int64("student_id", student.ID),
			zap.Int64("request_id", req.ID),
			zap.Error(err))
	}
}
