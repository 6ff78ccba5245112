package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/app"
	"github.com/Freeeeeet/studio_scheduler/internal/config"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env общие зависимости команд, создаются в PersistentPreRunE
type env struct {
	cfg    *config.Config
	logger *zap.Logger

	// open подменяет сборку сервисов в тестах
	open func(ctx context.Context) (*service.Services, func(), error)
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "studioctl",
		Short:         "Studio scheduler administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg
			logger, err := app.NewLogger(cfg.Environment, "studioctl", "stderr")
			if err != nil {
				return err
			}
			e.logger = logger
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(e),
		newDeclareHolidayCmd(e),
		newCancelClassCmd(e),
		newRevokeCancellationCmd(e),
		newGrantCreditCmd(e),
		newPendingCmd(e),
		newApproveCmd(e),
		newRejectCmd(e),
		newRegisterStudentCmd(e),
		newCreateModalityCmd(e),
		newCreateSlotCmd(e),
		newUpdateSlotCmd(e),
		newDeactivateSlotCmd(e),
		newEnrollCmd(e),
		newUnenrollCmd(e),
		newTransferCmd(e),
		newMergeStudentsCmd(e),
		newFreezeCmd(e, true),
		newFreezeCmd(e, false),
		newReclaimCmd(e),
		newMarkAttendanceCmd(e),
	)
	return root
}

// services открывает хранилище и собирает сервисы; close освобождает пул
func (e *env) services(ctx context.Context) (*service.Services, func(), error) {
	if e.cfg.Storage == config.StorageMemory {
		return nil, nil, fmt.Errorf("studioctl needs STORAGE=postgres, memory storage lives only inside the server process")
	}
	store, err := app.OpenStore(ctx, e.cfg, e.logger)
	if err != nil {
		return nil, nil, err
	}
	clock := service.SystemClock(e.cfg.Location())
	return service.New(store, clock, service.DefaultPolicy(), nil, e.logger), store.Close, nil
}

// withServices выполняет fn над собранными сервисами
func (e *env) withServices(cmd *cobra.Command, fn func(context.Context, *service.Services) error) error {
	ctx := cmd.Context()
	open := e.services
	if e.open != nil {
		open = e.open
	}
	services, closeStore, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, services)
}
