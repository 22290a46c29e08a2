package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/learntrack/config"
	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/application/query"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/quiz"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/learntrack/pkg/logger"
	"github.com/alem-hub/learntrack/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATE
// ══════════════════════════════════════════════════════════════════════════════

func newMigrateCmd() *cobra.Command {
	var (
		down   bool
		status bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or list database migrations",
		Example: `  learntrack migrate
  learntrack migrate --status
  learntrack migrate --down`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.StoragePostgres {
				return errors.New("migrate requires STORAGE_DRIVER=postgres")
			}
			log := newLogger(cfg)
			defer log.Sync()

			ctx := cmd.Context()
			pgCfg := postgres.DefaultConfig()
			pgCfg.URL = cfg.Database.URL
			conn, err := postgres.NewConnection(ctx, pgCfg)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer conn.Close()

			migrator := postgres.NewMigrator(conn)
			switch {
			case status:
				list, err := migrator.Status(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
				for _, m := range list {
					applied := "-"
					if m.IsApplied {
						applied = m.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, applied)
				}
				return tw.Flush()
			case down:
				if err := migrator.Rollback(ctx); err != nil {
					return err
				}
				log.Info("rolled back last migration")
				return nil
			default:
				n, err := migrator.Migrate(ctx)
				if err != nil {
					return err
				}
				log.Info("migrations applied", logger.Int("count", n))
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and their state")
	cmd.MarkFlagsMutuallyExclusive("down", "status")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the local learner",
	}

	var (
		name string
		plan string
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the local learner or update its name and plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
				res, err := app.initUser.Handle(ctx, command.InitUserCommand{Name: name, Plan: learner.Plan(plan)})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"created": res.Created,
					"name":    res.User.Name,
					"plan":    res.User.Plan,
				})
			})
		},
	}
	initCmd.Flags().StringVar(&name, "name", "learner", "display name")
	initCmd.Flags().StringVar(&plan, "plan", string(learner.PlanFree), "subscription plan (free, premium)")

	cmd.AddCommand(initCmd)
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL
// ══════════════════════════════════════════════════════════════════════════════

func newEnrollCmd() *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Mirror a course from the catalog and start tracking it",
		Long: `Fetch the course and its practice game from the catalog and write the
whole tree locally in one transaction.

Enrollment itself never retries. With --retries the command repeats the
whole enrollment on transient catalog failures (timeouts, rate limits,
outages); a partial tree is never left behind between attempts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("course-id", args[0])
			if err != nil {
				return err
			}

			return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
				retrier := retry.EnrollmentRetrier(retries+1, shared.IsRetryable,
					retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
						app.log.Warn("enrollment attempt failed, retrying",
							logger.Int("attempt", attempt),
							logger.Duration("delay", delay),
							logger.Err(err),
						)
					}))

				var res *command.EnrollCourseResult
				err := retrier.Do(ctx, func(ctx context.Context) error {
					var err error
					res, err = app.enroll.Handle(ctx, command.EnrollCourseCommand{CourseID: courseID})
					return err
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().IntVar(&retries, "retries", 0, "extra attempts on transient catalog failures")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE
// ══════════════════════════════════════════════════════════════════════════════

func newCompleteCmd() *cobra.Command {
	var (
		moduleID int64
		xp       int
	)

	cmd := &cobra.Command{
		Use:     "complete <lesson-id>",
		Short:   "Record a finished lesson and award XP",
		Example: `  learntrack complete 5 --module 11 --xp 8`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessonID, err := parseID("lesson-id", args[0])
			if err != nil {
				return err
			}

			return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
				res, err := app.complete.Handle(ctx, command.CompleteLessonCommand{
					LessonID: lessonID,
					ModuleID: moduleID,
					EarnedXP: xp,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().Int64Var(&moduleID, "module", 0, "module the lesson belongs to")
	cmd.Flags().IntVar(&xp, "xp", 0, "final quiz score, 0-10")
	_ = cmd.MarkFlagRequired("module")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// READS
// ══════════════════════════════════════════════════════════════════════════════

func newProgressCmd() *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "progress <course-id>",
		Short: "Show the module and lesson tree of an enrolled course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("course-id", args[0])
			if err != nil {
				return err
			}
			return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
				view, err := app.courseProgress.Handle(ctx, query.GetCourseProgressQuery{CourseID: courseID, SkipCache: fresh})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "bypass the progress cache")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the learner's level, XP and unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
				summary, err := app.learnerSummary.Handle(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}

func newNotificationsCmd() *cobra.Command {
	var (
		limit  int
		unread bool
	)

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "List notifications, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
				list, err := app.listNotifications.Handle(ctx, query.ListNotificationsQuery{Limit: limit, UnreadOnly: unread})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of notifications")
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "read <id>",
			Short: "Mark a notification as read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
					return app.notifications.MarkRead(ctx, command.MarkNotificationReadCommand{ID: notification.NotificationID(args[0])})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a notification",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApplication(cmd.Context(), false, func(ctx context.Context, app *application) error {
					return app.notifications.Delete(ctx, command.DeleteNotificationCommand{ID: notification.NotificationID(args[0])})
				})
			},
		},
	)
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// newEvaluateCmd replays a sequence of answers, e.g. "1101", from a full score.
func newEvaluateCmd() *cobra.Command {
	var start int

	cmd := &cobra.Command{
		Use:     "evaluate <answers>",
		Short:   "Score a sequence of answers (1 correct, 0 wrong)",
		Example: `  learntrack evaluate 1101110`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := start
			steps := make([]quiz.Evaluation, 0, len(args[0]))
			for i, c := range args[0] {
				switch c {
				case '1', '0':
				default:
					return fmt.Errorf("answer %d: expected 0 or 1, got %q", i+1, c)
				}
				ev := quiz.Evaluate(c == '1', score)
				score = ev.NewScore
				steps = append(steps, ev)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"steps":  steps,
				"score":  score,
				"passed": quiz.Passed(score),
			})
		},
	}
	cmd.Flags().IntVar(&start, "start", quiz.MaxScore, "starting score")
	return cmd
}

func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return id, nil
}
