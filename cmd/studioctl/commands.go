package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Freeeeeet/studio_scheduler/internal/app"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
	"github.com/Freeeeeet/studio_scheduler/migrations"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Manage database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := app.OpenPool(ctx, e.cfg.DBDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator, err := app.NewMigrator(pool, migrations.FS, e.logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			switch args[0] {
			case "up":
				return migrator.Run(ctx)
			case "down":
				return migrator.Down(ctx)
			default:
				version, err := migrator.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
		},
	}
	return cmd
}

func newDeclareHolidayCmd(e *env) *cobra.Command {
	var date, reason string
	cmd := &cobra.Command{
		Use:   "declare-holiday",
		Short: "Declare a studio holiday and cancel everything booked on it",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := model.ParseDate(date)
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				cascade, err := s.Holidays.Declare(ctx, day, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"holiday %s declared: %d requests rejected, %d notices cancelled, %d credit uses reversed\n",
					day.Format(model.DateLayout), cascade.RejectedRequests, cascade.CancelledNotices, cascade.ReversedConsumption)
				for _, d := range cascade.Displaced {
					fmt.Fprintf(cmd.OutOrStdout(), "student %d left without a seat in slot %d (request %d)\n",
						d.StudentID, d.SlotID, d.RequestID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "holiday date, YYYY-MM-DD")
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown to students")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newCancelClassCmd(e *env) *cobra.Command {
	var (
		slotID               int64
		date, expiry, reason string
	)
	cmd := &cobra.Command{
		Use:   "cancel-class",
		Short: "Cancel one class and grant a credit to every enrolled student",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := model.ParseDate(date)
			if err != nil {
				return err
			}
			until, err := model.ParseDate(expiry)
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				cancellation, err := s.Credits.GrantForCancelledClass(ctx, slotID, day, until, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "event %s: %d credits granted\n",
					cancellation.EventID, len(cancellation.Credits))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&slotID, "slot", 0, "slot id")
	cmd.Flags().StringVar(&date, "date", "", "class date, YYYY-MM-DD")
	cmd.Flags().StringVar(&expiry, "expiry", "", "credit expiry date, YYYY-MM-DD")
	cmd.Flags().StringVar(&reason, "reason", "class cancelled", "credit reason")
	_ = cmd.MarkFlagRequired("slot")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("expiry")
	return cmd
}

func newRevokeCancellationCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-cancellation EVENT_ID",
		Short: "Revoke credits granted for a cancelled class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse event id: %w", err)
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				res, err := s.Credits.RevokeCancellation(ctx, eventID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d credits deleted, %d deactivated\n", res.Deleted, res.Deactivated)
				return nil
			})
		},
	}
}

func newGrantCreditCmd(e *env) *cobra.Command {
	var (
		in         model.GrantCreditInput
		modalityID int64
		expiry     string
	)
	cmd := &cobra.Command{
		Use:   "grant-credit",
		Short: "Grant make-up credits to a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			until, err := model.ParseDate(expiry)
			if err != nil {
				return err
			}
			in.ExpiryDate = until
			if modalityID != 0 {
				in.ModalityID = &modalityID
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				credit, err := s.Credits.Grant(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "credit %d granted: %d until %s\n",
					credit.ID, credit.QuantityGranted, credit.ExpiryDate.Format(model.DateLayout))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.StudentID, "student", 0, "student id")
	cmd.Flags().IntVar(&in.Quantity, "quantity", 1, "number of classes")
	cmd.Flags().Int64Var(&modalityID, "modality", 0, "restrict to modality id (0 = any)")
	cmd.Flags().StringVar(&in.Reason, "reason", "", "reason")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("expiry")
	return cmd
}

func newPendingCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List reschedule requests waiting for a decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				pending, err := s.Reschedule.ListPending(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTUDENT\tFROM\tTO\tMAKEUP")
				for _, r := range pending {
					fmt.Fprintf(w, "%d\t%d\t%d@%s\t%d@%s %s\t%t\n",
						r.ID, r.StudentID,
						r.OriginSlotID, r.OriginDate.Format(model.DateLayout),
						r.DestinationSlotID, r.DestinationDate.Format(model.DateLayout), r.DestinationStartTime,
						r.IsMakeup)
				}
				return w.Flush()
			})
		},
	}
}

func newApproveCmd(e *env) *cobra.Command {
	var staffID int64
	cmd := &cobra.Command{
		Use:   "approve REQUEST_ID",
		Short: "Approve a pending reschedule request and move the enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, err := parseID(args[0], "request")
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				req, err := s.Reschedule.Approve(ctx, requestID, staffID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "request %d %s: student %d to slot %d on %s\n",
					req.ID, req.Status, req.StudentID, req.DestinationSlotID, req.DestinationDate.Format(model.DateLayout))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&staffID, "staff", 0, "id of the staff member deciding")
	_ = cmd.MarkFlagRequired("staff")
	return cmd
}

func newRejectCmd(e *env) *cobra.Command {
	var (
		staffID int64
		reason  string
	)
	cmd := &cobra.Command{
		Use:   "reject REQUEST_ID",
		Short: "Reject a pending reschedule request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, err := parseID(args[0], "request")
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				req, err := s.Reschedule.Reject(ctx, requestID, staffID, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "request %d %s\n", req.ID, req.Status)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&staffID, "staff", 0, "id of the staff member deciding")
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown to the student")
	_ = cmd.MarkFlagRequired("staff")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
