package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

// NewPostgresRepositories привязывает все репозитории к db (пулу или транзакции)
func NewPostgresRepositories(db base.DBTX) Repositories {
	return Repositories{
		Slots:       NewSlotPostgresRepository(db),
		Students:    NewStudentPostgresRepository(db),
		Modalities:  NewModalityPostgresRepository(db),
		Enrollments: NewEnrollmentPostgresRepository(db),
		Occurrences: NewOccurrencePostgresRepository(db),
		Notices:     NewNoticePostgresRepository(db),
		Credits:     NewCreditPostgresRepository(db),
		Requests:    NewRequestPostgresRepository(db),
		Holidays:    NewHolidayPostgresRepository(db),
	}
}

type PostgresStore struct {
	pool  *pgxpool.Pool
	repos Repositories
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:  pool,
		repos: NewPostgresRepositories(pool),
	}
}

// Repositories репозитории поверх пула, без транзакции
func (s *PostgresStore) Repositories() Repositories {
	return s.repos
}

// WithTx выполняет fn в транзакции READ COMMITTED. Сериализация
// конкурентных изменений обеспечивается SELECT ... FOR UPDATE внутри fn.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, NewPostgresRepositories(tx)); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback tx: %w (cause: %v)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
