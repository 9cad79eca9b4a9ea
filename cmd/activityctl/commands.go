package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/config"
	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/internal/repo"
	"github.com/pkordes/activity-log/internal/schedule"
	"github.com/pkordes/activity-log/internal/service"
)

// app holds what every subcommand shares: the slot configuration (from the
// environment, overridable by flags) and the clock.
type app struct {
	cfg   config.Config
	clock clock.Clock
	log   *slog.Logger
}

// activityFlags are the entry fields accepted by add and edit.
type activityFlags struct {
	name, description, date, duration, category, custom string
}

func (f *activityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "activity name")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "free-text description")
	cmd.Flags().StringVar(&f.date, "date", "", "calendar day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.duration, "duration", "", "length in whole minutes")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Hobby, School, Work, or Other")
	cmd.Flags().StringVar(&f.custom, "custom-category", "", "category text when --category=Other")
}

func (f *activityFlags) input() domain.ActivityInput {
	return domain.ActivityInput{
		Name:           f.name,
		Description:    f.description,
		Date:           f.date,
		Duration:       f.duration,
		Category:       f.category,
		CustomCategory: f.custom,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "activityctl",
		Short: "Manage the activity log from the terminal",
		Long: `activityctl reads and edits the activity collection in the slot selected by
SLOT_BACKEND, SQLITE_PATH, DATABASE_URL, REDIS_URL, and SLOT_KEY, the same
settings the API server reads. Flags override the environment. Activities
dated before today are dropped every time it opens the slot.`,
		SilenceUsage: true,
	}
	if a.cfg.SlotBackend == "" {
		a.cfg.SlotBackend = config.BackendSQLite
	}
	if a.cfg.SQLitePath == "" {
		a.cfg.SQLitePath = "activities.db"
	}
	if a.cfg.SlotKey == "" {
		a.cfg.SlotKey = repo.DefaultKey
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.SlotBackend, "backend", a.cfg.SlotBackend, "slot backend: sqlite, postgres, redis, or memory")
	flags.StringVar(&a.cfg.SQLitePath, "db", a.cfg.SQLitePath, "sqlite database file")
	flags.StringVar(&a.cfg.SlotKey, "key", a.cfg.SlotKey, "slot name")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newSweepCmd(a),
	)
	return root
}

// withSession opens the slot, starts a session (which performs the startup
// purge), runs fn, and tears everything down.
func (a *app) withSession(ctx context.Context, fn func(*service.Session) error) error {
	store, closeSlot, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()

	sess := service.NewSession(store, a.clock, a.log)
	if err := sess.Start(ctx); err != nil {
		a.log.WarnContext(ctx, "startup sweep not persisted", "error", err)
	}
	defer sess.Close()

	return fn(sess)
}

// openStore opens the configured slot and wraps it in an unloaded store.
func (a *app) openStore(ctx context.Context) (*service.ActivityStore, func(), error) {
	kv, closeSlot, err := repo.Open(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	return service.NewActivityStore(kv, a.clock, a.log, service.WithKey(a.cfg.SlotKey)), closeSlot, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List activities, imminent ones first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(sess *service.Session) error {
				now := a.clock.Now()
				printActivities(cmd.OutOrStdout(), schedule.Order(sess.Store().List(), now), now)
				return nil
			})
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var f activityFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(sess *service.Session) error {
				list, err := sess.Store().Create(cmd.Context(), f.input())
				if len(list) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "added %d\n", list[len(list)-1].ID)
				}
				return err
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f activityFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an activity; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(sess *service.Session) error {
				current, ok := sess.Store().Find(id)
				if !ok {
					return fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
				}
				in := mergeInput(cmd, current, f)
				if _, err := sess.Store().Update(cmd.Context(), id, in); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", id)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(sess *service.Session) error {
				if _, err := sess.Store().Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", id)
				return nil
			})
		},
	}
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Drop activities dated before today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeSlot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeSlot()

			store.Load(ctx)
			kept, purged, err := store.Sweep(ctx, domain.FormatDate(a.clock.Now()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d, kept %d\n", purged, len(kept))
			return nil
		},
	}
}

// mergeInput starts from the stored activity and overlays only the flags the
// user actually passed.
func mergeInput(cmd *cobra.Command, current domain.Activity, f activityFlags) domain.ActivityInput {
	in := domain.ActivityInput{
		Name:        current.Name,
		Description: current.Description,
		Date:        current.Date,
		Category:    current.Category,
	}
	if current.Duration != nil {
		in.Duration = strconv.Itoa(*current.Duration)
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = f.name
	}
	if flags.Changed("description") {
		in.Description = f.description
	}
	if flags.Changed("date") {
		in.Date = f.date
	}
	if flags.Changed("duration") {
		in.Duration = f.duration
	}
	if flags.Changed("category") {
		in.Category = f.category
	}
	if flags.Changed("custom-category") {
		in.CustomCategory = f.custom
	}
	return in
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid activity id %q", s)
	}
	return id, nil
}

// printActivities writes one row per activity; imminent rows are marked "!".
func printActivities(w io.Writer, list []domain.Activity, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "\tID\tDATE\tCATEGORY\tMIN\tNAME")
	for _, a := range list {
		mark := ""
		if schedule.IsImminent(a, now) {
			mark = "!"
		}
		date := a.Date
		if date == "" {
			date = "-"
		}
		minutes := "-"
		if a.Duration != nil {
			minutes = strconv.Itoa(*a.Duration)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", mark, a.ID, date, a.Category, minutes, a.Name)
	}
}
