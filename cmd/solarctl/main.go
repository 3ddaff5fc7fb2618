package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tigocode/solar-back/internal/app"
	"github.com/tigocode/solar-back/internal/config"
	"github.com/tigocode/solar-back/internal/domain"
)

var errEventsDisabled = errors.New("kafka is not configured (set KAFKA_BROKERS)")

var rootCmd = &cobra.Command{
	Use:           "solarctl",
	Short:         "Operator tasks for the solar back end",
	Long:          `Runs maintenance jobs against the configured document store: duration refresh, user provisioning and event dead-letter replay.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute the duration label of every open activity once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			result, err := a.Scheduler.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, updated %d, failures %d\n", result.Scanned, result.Updated, result.Failures)
			return nil
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage team members",
}

var userInput domain.UserInput

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			user, err := a.Users.CreateUser(ctx, userInput)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s <%s>\n", user.ID, user.Email)
			return nil
		})
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			users, err := a.Users.ListUsers(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tACCESS")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.AccessLevel)
			}
			return w.Flush()
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and replay undelivered lifecycle events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if a.DeadLetters == nil {
				return errEventsDisabled
			}
			entries, err := a.DeadLetters.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEVENT\tACTIVITY\tRETRIES\tQUARANTINED\tREASON")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n", e.ID, e.Envelope.EventType, e.Envelope.PartitionKey, e.RetryCount, e.QuarantinedAt != nil, e.Reason)
			}
			return w.Flush()
		})
	},
}

var (
	replayBatch    int
	replayInterval time.Duration
)

var eventsReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Retry dead-lettered events; with --interval keeps running until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			replayer := a.Replayer()
			if replayer == nil {
				return errEventsDisabled
			}
			for {
				result, err := replayer.RunOnce(ctx, replayBatch)
				if err != nil {
					a.Logger.Error("dead letter replay error", "error", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "delivered %d, rescheduled %d, quarantined %d\n", result.Delivered, result.Rescheduled, result.Quarantined)
				if replayInterval <= 0 {
					return err
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(replayInterval):
				}
			}
		})
	},
}

func withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.NewLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func init() {
	usersCreateCmd.Flags().StringVar(&userInput.Name, "name", "", "full name")
	usersCreateCmd.Flags().StringVar(&userInput.Email, "email", "", "login email")
	usersCreateCmd.Flags().StringVar(&userInput.Password, "password", "", "initial password")
	usersCreateCmd.Flags().StringVar(&userInput.Role, "role", "", "job title")
	usersCreateCmd.Flags().StringVar(&userInput.AccessLevel, "access-level", "", "Admin, Tec. Eletricista, Zelador or Mantenedor")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	eventsReplayCmd.Flags().IntVar(&replayBatch, "batch", 50, "maximum entries handled per pass")
	eventsReplayCmd.Flags().DurationVar(&replayInterval, "interval", 0, "repeat every interval instead of running once")

	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsReplayCmd)

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
