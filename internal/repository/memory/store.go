// Package memory хранилище в памяти с транзакциями через снимок состояния.
// Используется в тестах и при STORAGE=memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

type occurrenceKey struct {
	slotID    int64
	date      string
	studentID int64
}

type state struct {
	seq map[string]int64

	slots        map[int64]model.Slot
	students     map[int64]model.Student
	modalities   map[int64]model.Modality
	enrollments  map[int64]model.Enrollment
	occurrences  map[occurrenceKey]model.Occurrence
	notices      map[int64]model.AbsenceNotice
	credits      map[int64]model.Credit
	consumptions map[int64]model.CreditConsumption
	requests     map[int64]model.RescheduleRequest
	holidays     map[string]model.Holiday
}

func newState() *state {
	return &state{
		seq:          make(map[string]int64),
		slots:        make(map[int64]model.Slot),
		students:     make(map[int64]model.Student),
		modalities:   make(map[int64]model.Modality),
		enrollments:  make(map[int64]model.Enrollment),
		occurrences:  make(map[occurrenceKey]model.Occurrence),
		notices:      make(map[int64]model.AbsenceNotice),
		credits:      make(map[int64]model.Credit),
		consumptions: make(map[int64]model.CreditConsumption),
		requests:     make(map[int64]model.RescheduleRequest),
		holidays:     make(map[string]model.Holiday),
	}
}

// clone копия состояния для отката. Значения в картах хранятся
// по значению, поэтому глубоко копировать нужно только срезы.
func (st *state) clone() *state {
	modalities := make(map[int64]model.Modality, len(st.modalities))
	for id, m := range st.modalities {
		modalities[id] = cloneModality(m)
	}
	return &state{
		seq:          maps.Clone(st.seq),
		slots:        maps.Clone(st.slots),
		students:     maps.Clone(st.students),
		modalities:   modalities,
		enrollments:  maps.Clone(st.enrollments),
		occurrences:  maps.Clone(st.occurrences),
		notices:      maps.Clone(st.notices),
		credits:      maps.Clone(st.credits),
		consumptions: maps.Clone(st.consumptions),
		requests:     maps.Clone(st.requests),
		holidays:     maps.Clone(st.holidays),
	}
}

func (st *state) nextID(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

func cloneModality(m model.Modality) model.Modality {
	m.LinkedModalityIDs = slices.Clone(m.LinkedModalityIDs)
	return m
}

func dateKey(t time.Time) string {
	return t.Format(model.DateLayout)
}

// Store хранилище в памяти. WithTx держит эксклюзивную блокировку на всё
// время fn, вложенные WithTx не поддерживаются.
type Store struct {
	mu   sync.RWMutex
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: newState(),
		now:  time.Now,
	}
}

// Repositories репозитории, каждый вызов которых берёт блокировку сам
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(false)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, s.repositories(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Close() {}

func (s *Store) repositories(inTx bool) repository.Repositories {
	c := conn{store: s, inTx: inTx}
	return repository.Repositories{
		Slots:       &slotRepository{c},
		Students:    &studentRepository{c},
		Modalities:  &modalityRepository{c},
		Enrollments: &enrollmentRepository{c},
		Occurrences: &occurrenceRepository{c},
		Notices:     &noticeRepository{c},
		Credits:     &creditRepository{c},
		Requests:    &requestRepository{c},
		Holidays:    &holidayRepository{c},
	}
}

// conn доступ репозитория к состоянию. Внутри транзакции блокировка уже
// взята WithTx.
type conn struct {
	store *Store
	inTx  bool
}

func (c conn) read() (*state, func()) {
	if c.inTx {
		return c.store.data, func() {}
	}
	c.store.mu.RLock()
	return c.store.data, c.store.mu.RUnlock
}

func (c conn) write() (*state, func()) {
	if c.inTx {
		return c.store.data, func() {}
	}
	c.store.mu.Lock()
	return c.store.data, c.store.mu.Unlock
}

func (c conn) now() time.Time {
	return c.store.now()
}
