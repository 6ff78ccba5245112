package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

// parseID разбирает положительный id из аргумента команды
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("parse %s id %q: expected positive integer", what, arg)
	}
	return id, nil
}

func newRegisterStudentCmd(e *env) *cobra.Command {
	var (
		name       string
		telegramID int64
	)
	cmd := &cobra.Command{
		Use:   "register-student",
		Short: "Register a student (optionally bound to a Telegram account)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tg *int64
			if telegramID != 0 {
				tg = &telegramID
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				student, err := s.Directory.RegisterStudent(ctx, name, tg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "student %d registered\n", student.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "student name")
	cmd.Flags().Int64Var(&telegramID, "telegram", 0, "Telegram user id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCreateModalityCmd(e *env) *cobra.Command {
	var (
		name     string
		linked   []int64
		capacity int
	)
	cmd := &cobra.Command{
		Use:   "create-modality",
		Short: "Create a class modality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var override *int
			if cmd.Flags().Changed("capacity") {
				override = &capacity
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				modality, err := s.Directory.CreateModality(ctx, name, linked, override)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "modality %d created\n", modality.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "modality name")
	cmd.Flags().Int64SliceVar(&linked, "linked", nil, "ids of modalities sharing the same room")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "capacity override for every slot of this modality")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCreateSlotCmd(e *env) *cobra.Command {
	var in model.CreateSlotInput
	cmd := &cobra.Command{
		Use:   "create-slot",
		Short: "Create a weekly class slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				slot, err := s.Slots.Create(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "slot %d created: weekday %d %s-%s, %d seats\n",
					slot.ID, slot.Weekday, slot.StartTime, slot.EndTime, slot.Capacity)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.TeacherID, "teacher", 0, "teacher id")
	cmd.Flags().Int64Var(&in.ModalityID, "modality", 0, "modality id")
	cmd.Flags().IntVar(&in.Weekday, "weekday", 0, "0 = Sunday ... 6 = Saturday")
	cmd.Flags().StringVar(&in.Start, "start", "", "start time, HH:MM")
	cmd.Flags().StringVar(&in.End, "end", "", "end time, HH:MM")
	cmd.Flags().IntVar(&in.Capacity, "capacity", 0, "number of seats")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "notes")
	for _, name := range []string{"teacher", "modality", "weekday", "start", "end", "capacity"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newUpdateSlotCmd(e *env) *cobra.Command {
	var (
		teacherID         int64
		start, end, notes string
	)
	cmd := &cobra.Command{
		Use:   "update-slot SLOT_ID",
		Short: "Change teacher, time or notes of a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slotID, err := parseID(args[0], "slot")
			if err != nil {
				return err
			}
			var in model.UpdateSlotInput
			if cmd.Flags().Changed("teacher") {
				in.TeacherID = &teacherID
			}
			if cmd.Flags().Changed("start") {
				in.Start = &start
			}
			if cmd.Flags().Changed("end") {
				in.End = &end
			}
			if cmd.Flags().Changed("notes") {
				in.Notes = &notes
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				slot, err := s.Slots.Update(ctx, slotID, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "slot %d updated: %s-%s, teacher %d\n",
					slot.ID, slot.StartTime, slot.EndTime, slot.TeacherID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&teacherID, "teacher", 0, "teacher id")
	cmd.Flags().StringVar(&start, "start", "", "start time, HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time, HH:MM")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func newDeactivateSlotCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate-slot SLOT_ID",
		Short: "Deactivate a slot and all of its enrollments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slotID, err := parseID(args[0], "slot")
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				if err := s.Slots.Deactivate(ctx, slotID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "slot %d deactivated\n", slotID)
				return nil
			})
		},
	}
}

func newEnrollCmd(e *env) *cobra.Command {
	var (
		in            model.EnrollInput
		substituteFor int64
	)
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a student into a slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if substituteFor != 0 {
				in.IsSubstitute = true
				in.ReplacesEnrollmentID = &substituteFor
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				enrollment, err := s.Enrollments.Enroll(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enrollment %d created\n", enrollment.ID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.SlotID, "slot", 0, "slot id")
	cmd.Flags().Int64Var(&in.StudentID, "student", 0, "student id")
	cmd.Flags().Int64Var(&substituteFor, "substitute-for", 0, "enrollment id of the frozen student being replaced")
	_ = cmd.MarkFlagRequired("slot")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func newUnenrollCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "unenroll ENROLLMENT_ID",
		Short: "Deactivate an enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enrollmentID, err := parseID(args[0], "enrollment")
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				if err := s.Enrollments.Unenroll(ctx, enrollmentID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enrollment %d deactivated\n", enrollmentID)
				return nil
			})
		},
	}
}

func newTransferCmd(e *env) *cobra.Command {
	var studentID, fromSlotID, toSlotID int64
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move a student's enrollment to another slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				moved, err := s.Enrollments.Transfer(ctx, studentID, fromSlotID, toSlotID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "student %d now in slot %d (enrollment %d)\n",
					studentID, moved.SlotID, moved.ID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&studentID, "student", 0, "student id")
	cmd.Flags().Int64Var(&fromSlotID, "from", 0, "current slot id")
	cmd.Flags().Int64Var(&toSlotID, "to", 0, "target slot id")
	for _, name := range []string{"student", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newMergeStudentsCmd(e *env) *cobra.Command {
	var sourceID, targetID int64
	cmd := &cobra.Command{
		Use:   "merge-students",
		Short: "Move every enrollment of a duplicate student record to the kept one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				moved, err := s.Enrollments.MergeStudents(ctx, sourceID, targetID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d enrollments moved from student %d to %d\n", moved, sourceID, targetID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&sourceID, "source", 0, "duplicate student id")
	cmd.Flags().Int64Var(&targetID, "target", 0, "student id to keep")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newFreezeCmd(e *env, frozen bool) *cobra.Command {
	use, short := "freeze STUDENT_ID", "Pause a student's membership so a substitute can take the seat"
	if !frozen {
		use, short = "unfreeze STUDENT_ID", "Lift a membership pause without removing substitutes"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0], "student")
			if err != nil {
				return err
			}
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				if frozen {
					return s.Enrollments.Freeze(ctx, studentID)
				}
				return s.Enrollments.Unfreeze(ctx, studentID)
			})
		},
	}
}

func newReclaimCmd(e *env) *cobra.Command {
	var originalID, substituteID int64
	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Return a seat to a frozen student and end the substitute's enrollment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				if err := s.Enrollments.Reclaim(ctx, originalID, substituteID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seat of enrollment %d reclaimed\n", originalID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&originalID, "original", 0, "enrollment id of the frozen student")
	cmd.Flags().Int64Var(&substituteID, "substitute", 0, "enrollment id of the substitute")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("substitute")
	return cmd
}

func newMarkAttendanceCmd(e *env) *cobra.Command {
	var (
		in     model.AttendanceInput
		date   string
		absent bool
	)
	cmd := &cobra.Command{
		Use:   "mark-attendance",
		Short: "Record whether a student attended a class (absence confirms the notice)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := model.ParseDate(date)
			if err != nil {
				return err
			}
			in.Date = day
			in.Present = !absent
			return e.withServices(cmd, func(ctx context.Context, s *service.Services) error {
				occ, err := s.Attendance.RecordAttendance(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "student %d marked %s on %s (rescheduled: %t)\n",
					in.StudentID, attendanceWord(!absent), day.Format(model.DateLayout), occ.IsRescheduleOutcome)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.SlotID, "slot", 0, "slot id")
	cmd.Flags().Int64Var(&in.StudentID, "student", 0, "student id")
	cmd.Flags().StringVar(&date, "date", "", "class date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&absent, "absent", false, "mark the student absent instead of present")
	for _, name := range []string{"slot", "student", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func attendanceWord(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}
