package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

// DirectoryService минимальный справочник учеников и модальностей
type DirectoryService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewDirectoryService(store repository.Store, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		store:  store,
		logger: logger,
	}
}

// RegisterStudent создаёт ученика. При повторной регистрации по Telegram ID
// возвращает существующего.
func (s *DirectoryService) RegisterStudent(ctx context.Context, name string, telegramID *int64) (*model.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		vErr := &model.ValidationError{}
		vErr.Add("name", "is required")
		return nil, vErr
	}

	repos := s.store.Repositories()
	if telegramID != nil {
		existing, err := repos.Students.GetByTelegramID(ctx, *telegramID)
		if err != nil {
			return nil, fmt.Errorf("check existing student: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	student := &model.Student{
		Name:       name,
		TelegramID: telegramID,
		IsActive:   true,
	}
	if err := repos.Students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	s.logger.Info("Student registered",
		zap.Int64("student_id", student.ID),
		zap.String("name", student.Name),
	)

	return student, nil
}

// GetStudent получает ученика, ErrStudentNotFound если его нет
func (s *DirectoryService) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.store.Repositories().Students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, model.ErrStudentNotFound
	}
	return student, nil
}

// GetStudentByTelegramID получает ученика по Telegram ID, nil если не зарегистрирован
func (s *DirectoryService) GetStudentByTelegramID(ctx context.Context, telegramID int64) (*model.Student, error) {
	return s.store.Repositories().Students.GetByTelegramID(ctx, telegramID)
}

// CreateModality создаёт модальность. Связанные модальности должны существовать.
func (s *DirectoryService) CreateModality(ctx context.Context, name string, linked []int64, capacityOverride *int) (*model.Modality, error) {
	vErr := &model.ValidationError{}
	if strings.TrimSpace(name) == "" {
		vErr.Add("name", "is required")
	}
	if capacityOverride != nil && *capacityOverride < 1 {
		vErr.Add("capacity_override", "must be at least 1")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	modality := &model.Modality{
		Name:              strings.TrimSpace(name),
		LinkedModalityIDs: linked,
		CapacityOverride:  capacityOverride,
		IsActive:          true,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		for _, id := range linked {
			m, err := repos.Modalities.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("get linked modality: %w", err)
			}
			if m == nil {
				return fmt.Errorf("linked modality %d: %w", id, model.ErrModalityNotFound)
			}
		}
		return repos.Modalities.Create(ctx, modality)
	})
	if err != nil {
		return nil, fmt.Errorf("create modality: %w", err)
	}

	s.logger.Info("Modality created",
		zap.Int64("modality_id", modality.ID),
		zap.String("name", modality.Name),
		zap.Int64s("linked", modality.LinkedModalityIDs),
	)

	return modality, nil
}

// GetModality получает модальность, ErrModalityNotFound если её нет
func (s *DirectoryService) GetModality(ctx context.Context, id int64) (*model.Modality, error) {
	m, err := s.store.Repositories().Modalities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get modality: %w", err)
	}
	if m == nil {
		return nil, model.ErrModalityNotFound
	}
	return m, nil
}
