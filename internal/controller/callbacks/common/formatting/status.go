package formatting

import "github.com/Freeeeeet/studio_scheduler/internal/model"

// StatusDisplay emoji и подпись статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

var requestStatuses = map[model.RequestStatus]StatusDisplay{
	model.RequestStatusPending:  {"⏳", "Ожидает решения"},
	model.RequestStatusApproved: {"✅", "Одобрена"},
	model.RequestStatusRejected: {"🚫", "Отклонена"},
}

var noticeStatuses = map[model.NoticeStatus]StatusDisplay{
	model.NoticeStatusPending:   {"📝", "Пропуск заявлен"},
	model.NoticeStatusConfirmed: {"☑️", "Пропуск подтверждён"},
	model.NoticeStatusCancelled: {"⚫️", "Отменён"},
	model.NoticeStatusUsed:      {"✔️", "Отработан"},
}

// GetRequestStatusDisplay возвращает emoji и текст для статуса заявки на перенос
func GetRequestStatusDisplay(status model.RequestStatus) StatusDisplay {
	if d, ok := requestStatuses[status]; ok {
		return d
	}
	return StatusDisplay{"❓", "Неизвестно"}
}

// GetNoticeStatusDisplay возвращает emoji и текст для статуса уведомления о пропуске
func GetNoticeStatusDisplay(status model.NoticeStatus) StatusDisplay {
	if d, ok := noticeStatuses[status]; ok {
		return d
	}
	return StatusDisplay{"❓", "Неизвестно"}
}
