package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func ptr[T any](v T) *T {
	return &v
}

func sortByID[T any](items []*T, id func(*T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}

// --- slots ---

type slotRepository struct{ conn }

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	st, unlock := r.write()
	defer unlock()

	now := r.now()
	slot.ID = st.nextID("slots")
	slot.CreatedAt = now
	slot.UpdatedAt = now
	st.slots[slot.ID] = *slot
	return nil
}

func (r *slotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	st, unlock := r.read()
	defer unlock()

	slot, ok := st.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (r *slotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return r.GetByID(ctx, id)
}

func (r *slotRepository) Update(ctx context.Context, slot *model.Slot) error {
	st, unlock := r.write()
	defer unlock()

	current, ok := st.slots[slot.ID]
	if !ok {
		return fmt.Errorf("update slot: %w", model.ErrSlotNotFound)
	}
	current.TeacherID = slot.TeacherID
	current.StartTime = slot.StartTime
	current.EndTime = slot.EndTime
	current.Notes = slot.Notes
	current.IsActive = slot.IsActive
	current.UpdatedAt = r.now()
	st.slots[slot.ID] = current
	*slot = current
	return nil
}

func (r *slotRepository) ListActiveByModalities(ctx context.Context, modalityIDs []int64, weekday int) ([]*model.Slot, error) {
	st, unlock := r.read()
	defer unlock()

	var out []*model.Slot
	for _, slot := range st.slots {
		if slot.IsActive && slot.Weekday == weekday && slices.Contains(modalityIDs, slot.ModalityID) {
			out = append(out, ptr(slot))
		}
	}
	sortByID(out, func(s *model.Slot) int64 { return s.ID })
	return out, nil
}

func (r *slotRepository) ListActive(ctx context.Context) ([]*model.Slot, error) {
	st, unlock := r.read()
	defer unlock()

	var out []*model.Slot
	for _, slot := range st.slots {
		if slot.IsActive {
			out = append(out, ptr(slot))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- students ---

type studentRepository struct{ conn }

func (r *studentRepository) Create(ctx context.Context, student *model.Student) error {
	st, unlock := r.write()
	defer unlock()

	if student.TelegramID != nil {
		for _, s := range st.students {
			if s.TelegramID != nil && *s.TelegramID == *student.TelegramID {
				return fmt.Errorf("create student: %w: students_telegram_id_key", model.ErrConflict)
			}
		}
	}

	student.ID = st.nextID("students")
	student.CreatedAt = r.now()
	st.students[student.ID] = *student
	return nil
}

func (r *studentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	st, unlock := r.read()
	defer unlock()

	s, ok := st.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *studentRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Student, error) {
	st, unlock := r.read()
	defer unlock()

	for _, s := range st.students {
		if s.TelegramID != nil && *s.TelegramID == telegramID {
			return ptr(s), nil
		}
	}
	return nil, nil
}

func (r *studentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	st, unlock := r.write()
	defer unlock()

	s, ok := st.students[id]
	if !ok {
		return fmt.Errorf("set student active: %w", model.ErrStudentNotFound)
	}
	s.IsActive = active
	st.students[id] = s
	return nil
}

func (r *studentRepository) SetFrozen(ctx context.Context, id int64, frozen bool) error {
	st, unlock := r.write()
	defer unlock()

	s, ok := st.students[id]
	if !ok {
		return fmt.Errorf("set student frozen: %w", model.ErrStudentNotFound)
	}
	s.IsFrozen = frozen
	st.students[id] = s
	return nil
}

// --- modalities ---

type modalityRepository struct{ conn }

func (r *modalityRepository) Create(ctx context.Context, modality *model.Modality) error {
	st, unlock := r.write()
	defer unlock()

	modality.ID = st.nextID("modalities")
	modality.CreatedAt = r.now()
	st.modalities[modality.ID] = cloneModality(*modality)
	return nil
}

func (r *modalityRepository) GetByID(ctx context.Context, id int64) (*model.Modality, error) {
	st, unlock := r.read()
	defer unlock()

	m, ok := st.modalities[id]
	if !ok {
		return nil, nil
	}
	return ptr(cloneModality(m)), nil
}

// --- enrollments ---

type enrollmentRepository struct{ conn }

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	st, unlock := r.write()
	defer unlock()

	if enrollment.IsActive {
		for _, e := range st.enrollments {
			if e.IsActive && e.StudentID == enrollment.StudentID && e.SlotID == enrollment.SlotID {
				return fmt.Errorf("create enrollment: %w: enrollments_active_unique", model.ErrConflict)
			}
		}
	}

	enrollment.ID = st.nextID("enrollments")
	enrollment.CreatedAt = r.now()
	st.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id int64) (*model.Enrollment, error) {
	st, unlock := r.read()
	defer unlock()

	e, ok := st.enrollments[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *enrollmentRepository) GetActive(ctx context.Context, studentID, slotID int64) (*model.Enrollment, error) {
	st, unlock := r.read()
	defer unlock()

	for _, e := range st.enrollments {
		if e.IsActive && e.StudentID == studentID && e.SlotID == slotID {
			return ptr(e), nil
		}
	}
	return nil, nil
}

func (r *enrollmentRepository) list(match func(model.Enrollment) bool) []*model.Enrollment {
	st, unlock := r.read()
	defer unlock()

	var out []*model.Enrollment
	for _, e := range st.enrollments {
		if match(e) {
			out = append(out, ptr(e))
		}
	}
	sortByID(out, func(e *model.Enrollment) int64 { return e.ID })
	return out
}

func (r *enrollmentRepository) ListActiveBySlot(ctx context.Context, slotID int64) ([]*model.Enrollment, error) {
	return r.list(func(e model.Enrollment) bool { return e.IsActive && e.SlotID == slotID }), nil
}

func (r *enrollmentRepository) ListActiveByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error) {
	return r.list(func(e model.Enrollment) bool { return e.IsActive && e.StudentID == studentID }), nil
}

func (r *enrollmentRepository) CountActiveBySlot(ctx context.Context, slotID int64) (int, error) {
	items, _ := r.ListActiveBySlot(ctx, slotID)
	return len(items), nil
}

func (r *enrollmentRepository) CountActiveByStudent(ctx context.Context, studentID int64) (int, error) {
	items, _ := r.ListActiveByStudent(ctx, studentID)
	return len(items), nil
}

func (r *enrollmentRepository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	st, unlock := r.write()
	defer unlock()

	e, ok := st.enrollments[id]
	if !ok || !e.IsActive {
		return fmt.Errorf("deactivate enrollment: %w", model.ErrEnrollmentNotFound)
	}
	e.IsActive = false
	e.DeactivatedAt = &at
	st.enrollments[id] = e
	return nil
}

func (r *enrollmentRepository) Reactivate(ctx context.Context, id int64) error {
	st, unlock := r.write()
	defer unlock()

	e, ok := st.enrollments[id]
	if !ok || e.IsActive {
		return fmt.Errorf("reactivate enrollment: %w", model.ErrEnrollmentNotFound)
	}
	for _, other := range st.enrollments {
		if other.IsActive && other.StudentID == e.StudentID && other.SlotID == e.SlotID {
			return fmt.Errorf("reactivate enrollment: %w: enrollments_active_unique", model.ErrConflict)
		}
	}
	e.IsActive = true
	e.DeactivatedAt = nil
	st.enrollments[id] = e
	return nil
}

// --- occurrences ---

type occurrenceRepository struct{ conn }

func (r *occurrenceRepository) Upsert(ctx context.Context, occurrence *model.Occurrence) error {
	st, unlock := r.write()
	defer unlock()

	key := occurrenceKey{occurrence.SlotID, dateKey(occurrence.Date), occurrence.StudentID}
	if existing, ok := st.occurrences[key]; ok {
		occurrence.ID = existing.ID
	} else {
		occurrence.ID = st.nextID("occurrences")
	}
	occurrence.UpdatedAt = r.now()
	st.occurrences[key] = *occurrence
	return nil
}

func (r *occurrenceRepository) Get(ctx context.Context, slotID int64, date time.Time, studentID int64) (*model.Occurrence, error) {
	st, unlock := r.read()
	defer unlock()

	o, ok := st.occurrences[occurrenceKey{slotID, dateKey(date), studentID}]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *occurrenceRepository) ListBySlotDate(ctx context.Context, slotID int64, date time.Time) ([]*model.Occurrence, error) {
	st, unlock := r.read()
	defer unlock()

	day := dateKey(date)
	var out []*model.Occurrence
	for key, o := range st.occurrences {
		if key.slotID == slotID && key.date == day {
			out = append(out, ptr(o))
		}
	}
	sortByID(out, func(o *model.Occurrence) int64 { return o.StudentID })
	return out, nil
}

// --- notices ---

type noticeRepository struct{ conn }

func (r *noticeRepository) Create(ctx context.Context, notice *model.AbsenceNotice) error {
	st, unlock := r.write()
	defer unlock()

	if notice.IsOpen() {
		for _, n := range st.notices {
			if n.IsOpen() && n.EnrollmentID == notice.EnrollmentID && n.AbsenceDate.Equal(notice.AbsenceDate) {
				return fmt.Errorf("create absence notice: %w: absence_notices_open_unique", model.ErrConflict)
			}
		}
	}

	now := r.now()
	notice.ID = st.nextID("notices")
	notice.CreatedAt = now
	notice.UpdatedAt = now
	st.notices[notice.ID] = *notice
	return nil
}

func (r *noticeRepository) GetByID(ctx context.Context, id int64) (*model.AbsenceNotice, error) {
	st, unlock := r.read()
	defer unlock()

	n, ok := st.notices[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *noticeRepository) GetOpen(ctx context.Context, enrollmentID int64, date time.Time) (*model.AbsenceNotice, error) {
	st, unlock := r.read()
	defer unlock()

	for _, n := range st.notices {
		if n.IsOpen() && n.EnrollmentID == enrollmentID && n.AbsenceDate.Equal(date) {
			return ptr(n), nil
		}
	}
	return nil, nil
}

func (r *noticeRepository) Update(ctx context.Context, notice *model.AbsenceNotice) error {
	st, unlock := r.write()
	defer unlock()

	current, ok := st.notices[notice.ID]
	if !ok {
		return fmt.Errorf("update absence notice: %w", model.ErrNoticeNotFound)
	}
	current.Status = notice.Status
	current.MakeupUsesConsumed = notice.MakeupUsesConsumed
	current.UpdatedAt = r.now()
	st.notices[notice.ID] = current
	*notice = current
	return nil
}

func (r *noticeRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.AbsenceNotice, error) {
	st, unlock := r.read()
	defer unlock()

	var out []*model.AbsenceNotice
	for _, n := range st.notices {
		if n.StudentID == studentID {
			out = append(out, ptr(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AbsenceDate.Equal(out[j].AbsenceDate) {
			return out[i].AbsenceDate.After(out[j].AbsenceDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *noticeRepository) ListByDateAndStatus(ctx context.Context, date time.Time, status model.NoticeStatus) ([]*model.AbsenceNotice, error) {
	st, unlock := r.read()
	defer unlock()

	var out []*model.AbsenceNotice
	for _, n := range st.notices {
		if n.Status == status && n.AbsenceDate.Equal(date) {
			out = append(out, ptr(n))
		}
	}
	sortByID(out, func(n *model.AbsenceNotice) int64 { return n.ID })
	return out, nil
}

// --- credits ---

type creditRepository struct{ conn }

func (r *creditRepository) Create(ctx context.Context, credit *model.Credit) error {
	st, unlock := r.write()
	defer unlock()

	credit.ID = st.nextID("credits")
	credit.CreatedAt = r.now()
	st.credits[credit.ID] = *credit
	return nil
}

func (r *creditRepository) GetByID(ctx context.Context, id int64) (*model.Credit, error) {
	st, unlock := r.read()
	defer unlock()

	c, ok := st.credits[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *creditRepository) Update(ctx context.Context, credit *model.Credit) error {
	st, unlock := r.write()
	defer unlock()

	current, ok := st.credits[credit.ID]
	if !ok {
		return fmt.Errorf("update credit: %w", model.ErrCreditNotFound)
	}
	if credit.QuantityUsed < 0 || credit.QuantityUsed > current.QuantityGranted {
		return fmt.Errorf("update credit: quantity_used %d out of range [0, %d]", credit.QuantityUsed, current.QuantityGranted)
	}
	current.QuantityUsed = credit.QuantityUsed
	current.IsActive = credit.IsActive
	st.credits[credit.ID] = current
	return nil
}

func (r *creditRepository) Delete(ctx context.Context, id int64) error {
	st, unlock := r.write()
	defer unlock()

	if _, ok := st.credits[id]; !ok {
		return fmt.Errorf("delete credit: %w", model.ErrCreditNotFound)
	}
	delete(st.credits, id)
	return nil
}

func (r *creditRepository) list(match func(model.Credit) bool) []*model.Credit {
	st, unlock := r.read()
	defer unlock()

	var out []*model.Credit
	for _, c := range st.credits {
		if match(c) {
			out = append(out, ptr(c))
		}
	}
	sortByID(out, func(c *model.Credit) int64 { return c.ID })
	return out
}

func (r *creditRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Credit, error) {
	out := r.list(func(c model.Credit) bool { return c.StudentID == studentID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

func (r *creditRepository) ListBySourceEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Credit, error) {
	return r.list(func(c model.Credit) bool {
		return c.SourceEventID != nil && *c.SourceEventID == eventID
	}), nil
}

func (r *creditRepository) AddConsumption(ctx context.Context, consumption *model.CreditConsumption) error {
	st, unlock := r.write()
	defer unlock()

	if _, ok := st.credits[consumption.CreditID]; !ok {
		return fmt.Errorf("add credit consumption: %w", model.ErrCreditNotFound)
	}
	consumption.ID = st.nextID("credit_consumptions")
	consumption.CreatedAt = r.now()
	st.consumptions[consumption.ID] = *consumption
	return nil
}

func (r *creditRepository) ListConsumptionsByDate(ctx context.Context, date time.Time) ([]*model.CreditConsumption, error) {
	st, unlock := r.read()
	defer unlock()

	var out []*model.CreditConsumption
	for _, c := range st.consumptions {
		if c.ClassDate.Equal(date) {
			out = append(out, ptr(c))
		}
	}
	sortByID(out, func(c *model.CreditConsumption) int64 { return c.ID })
	return out, nil
}

func (r *creditRepository) DeleteConsumption(ctx context.Context, id int64) error {
	st, unlock := r.write()
	defer unlock()

	if _, ok := st.consumptions[id]; !ok {
		return fmt.Errorf("delete consumption: %w", model.ErrCreditNotFound)
	}
	delete(st.consumptions, id)
	return nil
}

// --- requests ---

type requestRepository struct{ conn }

func (r *requestRepository) Create(ctx context.Context, req *model.RescheduleRequest) error {
	st, unlock := r.write()
	defer unlock()

	req.ID = st.nextID("reschedule_requests")
	req.CreatedAt = r.now()
	st.requests[req.ID] = *req
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*model.RescheduleRequest, error) {
	st, unlock := r.read()
	defer unlock()

	req, ok := st.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *requestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.RescheduleRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepository) Update(ctx context.Context, req *model.RescheduleRequest) error {
	st, unlock := r.write()
	defer unlock()

	current, ok := st.requests[req.ID]
	if !ok {
		return fmt.Errorf("update reschedule request: %w", model.ErrRequestNotFound)
	}
	current.Status = req.Status
	current.DestinationEnrollmentID = req.DestinationEnrollmentID
	current.ApprovedBy = req.ApprovedBy
	current.RejectionReason = req.RejectionReason
	current.UpdatedAt = ptr(r.now())
	st.requests[req.ID] = current
	*req = current
	return nil
}

func (r *requestRepository) list(match func(model.RescheduleRequest) bool) []*model.RescheduleRequest {
	st, unlock := r.read()
	defer unlock()

	var out []*model.RescheduleRequest
	for _, req := range st.requests {
		if match(req) {
			out = append(out, ptr(req))
		}
	}
	sortByID(out, func(req *model.RescheduleRequest) int64 { return req.ID })
	return out
}

func (r *requestRepository) HasPending(ctx context.Context, studentID, originSlotID int64, originDate time.Time) (bool, error) {
	found := r.list(func(req model.RescheduleRequest) bool {
		return req.IsPending() && req.StudentID == studentID && req.OriginSlotID == originSlotID && req.OriginDate.Equal(originDate)
	})
	return len(found) > 0, nil
}

func (r *requestRepository) CountPendingForDestination(ctx context.Context, slotID int64, date time.Time) (int, error) {
	found := r.list(func(req model.RescheduleRequest) bool {
		return req.IsPending() && req.DestinationSlotID == slotID && req.DestinationDate.Equal(date)
	})
	return len(found), nil
}

func (r *requestRepository) ListByDestinationDate(ctx context.Context, date time.Time, statuses ...model.RequestStatus) ([]*model.RescheduleRequest, error) {
	return r.list(func(req model.RescheduleRequest) bool {
		return req.DestinationDate.Equal(date) && slices.Contains(statuses, req.Status)
	}), nil
}

func (r *requestRepository) FindApprovedForDestination(ctx context.Context, studentID, slotID int64, date time.Time) (*model.RescheduleRequest, error) {
	found := r.list(func(req model.RescheduleRequest) bool {
		return req.IsApproved() && req.StudentID == studentID && req.DestinationSlotID == slotID && req.DestinationDate.Equal(date)
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[len(found)-1], nil
}

func (r *requestRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.RescheduleRequest, error) {
	out := r.list(func(req model.RescheduleRequest) bool {
		if filter.Status != nil && req.Status != *filter.Status {
			return false
		}
		if filter.StudentID != nil && req.StudentID != *filter.StudentID {
			return false
		}
		return true
	})
	slices.Reverse(out)
	return out, nil
}

// --- holidays ---

type holidayRepository struct{ conn }

func (r *holidayRepository) Create(ctx context.Context, holiday *model.Holiday) error {
	st, unlock := r.write()
	defer unlock()

	key := dateKey(holiday.Date)
	if _, ok := st.holidays[key]; ok {
		return model.ErrHolidayExists
	}
	holiday.CreatedAt = r.now()
	st.holidays[key] = *holiday
	return nil
}

func (r *holidayRepository) Exists(ctx context.Context, date time.Time) (bool, error) {
	st, unlock := r.read()
	defer unlock()

	_, ok := st.holidays[dateKey(date)]
	return ok, nil
}

func (r *holidayRepository) List(ctx context.Context) ([]*model.Holiday, error) {
	st, unlock := r.read()
	defer unlock()

	out := make([]*model.Holiday, 0, len(st.holidays))
	for _, h := range st.holidays {
		out = append(out, ptr(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
