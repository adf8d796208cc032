package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/scheduleworks/client/internal/adapters/local"
	"github.com/scheduleworks/client/internal/adapters/remote"
	"github.com/scheduleworks/client/internal/adapters/repository"
	terminalview "github.com/scheduleworks/client/internal/adapters/view"
	"github.com/scheduleworks/client/internal/application/services"
	"github.com/scheduleworks/client/internal/application/session"
	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/config"
	"github.com/scheduleworks/client/internal/infrastructure/database"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/infrastructure/server"
	"github.com/scheduleworks/client/internal/infrastructure/storage"
	"github.com/scheduleworks/client/internal/ports"
)

// app bundles the wired client: one backend, one view, the loader and the
// controllers around it.
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	store   ports.KV
	backend ports.Backend
	view    ports.View
	loader  *services.Loader
	form    *services.FormController
	actions *services.Actions
}

// newApp is the composition root for client commands.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var backend ports.Backend
	switch cfg.Backend.Mode {
	case config.BackendRemote:
		backend = remote.New(cfg.API, appLogger)
	default:
		backend, err = local.New(store, cfg.Local.Latency, appLogger)
		if err != nil {
			return nil, fmt.Errorf("initialize local backend: %w", err)
		}
	}

	view := terminalview.NewTerminal(os.Stdout)
	loader := services.NewLoader(backend, view, store, cfg.Refresh.SearchDebounce, appLogger)
	loader.RestoreFilter()
	form := services.NewFormController(backend, loader, view, appLogger)
	actions := services.NewActions(backend, loader, view, appLogger)

	return &app{
		cfg:     cfg,
		logger:  appLogger,
		store:   store,
		backend: backend,
		view:    view,
		loader:  loader,
		form:    form,
		actions: actions,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Close()
}

func parseScheduleID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule id %q", arg)
	}
	return id, nil
}

// parseCLITime accepts a date with optional time of day.
func parseCLITime(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD or YYYY-MM-DD HH:MM", value)
}

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules using the saved filter",
		Long:  "List schedules. Filter flags replace the saved filter; without flags the previously saved filter is reused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			return runList(cmd, a)
		},
	}

	cmd.Flags().String("status", "", "Filter by status (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)")
	cmd.Flags().String("date", "", "Filter by calendar day (YYYY-MM-DD)")
	cmd.Flags().String("search", "", "Filter by title or description substring")
	return cmd
}

// runList reloads with the saved filter, or replaces it from the flags. The
// view has already surfaced any failure; the error still decides the exit
// code.
func runList(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	if !cmd.Flags().Changed("status") && !cmd.Flags().Changed("date") && !cmd.Flags().Changed("search") {
		return a.loader.Reload(ctx)
	}

	statusFlag, _ := cmd.Flags().GetString("status")
	dateFlag, _ := cmd.Flags().GetString("date")
	searchFlag, _ := cmd.Flags().GetString("search")

	filter := ports.Filter{Date: dateFlag, Search: searchFlag}
	if statusFlag != "" {
		status, err := entities.ParseStatus(statusFlag)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	return a.loader.SetFilter(ctx, filter)
}

func runSearch(cmd *cobra.Command, a *app, query string) error {
	filter := a.loader.Filter()
	filter.Search = query
	return a.loader.SetFilter(cmd.Context(), filter)
}

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search schedules by title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			return runSearch(cmd, a, args[0])
		},
	}
}

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := parseScheduleID(args[0])
			if err != nil {
				return err
			}

			schedule, err := a.backend.GetByID(cmd.Context(), id)
			if err != nil {
				a.view.Notify(services.UserMessage(err), ports.SeverityError)
				return err
			}

			printSchedule(schedule)
			return nil
		},
	}
}

func printSchedule(s *entities.Schedule) {
	fmt.Printf("ID:          %d\n", s.ID)
	fmt.Printf("Title:       %s\n", s.Title)
	if s.Description != "" {
		fmt.Printf("Description: %s\n", s.Description)
	}
	fmt.Printf("Start:       %s\n", s.StartDate.Local().Format("2006-01-02 15:04"))
	fmt.Printf("End:         %s\n", s.EndDate.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Status:      %s\n", s.Status)
	fmt.Printf("Priority:    %s\n", s.Priority)
	if s.AlarmTime != nil {
		state := "off"
		if s.AlarmEnabled {
			state = "on"
		}
		fmt.Printf("Alarm:       %s (%s)\n", s.AlarmTime.Local().Format("2006-01-02 15:04"), state)
	}
	fmt.Printf("Updated:     %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Schedule title")
	cmd.Flags().String("description", "", "Schedule description")
	cmd.Flags().String("start", "", "Start time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	cmd.Flags().String("end", "", "End time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	cmd.Flags().String("status", "", "Status (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)")
	cmd.Flags().String("priority", "", "Priority (LOW, MEDIUM, HIGH)")
	cmd.Flags().String("alarm", "", "Alarm time (YYYY-MM-DD HH:MM)")
}

// applyFormFlags overlays set flags onto the form data.
func applyFormFlags(cmd *cobra.Command, data services.FormData) (services.FormData, error) {
	if cmd.Flags().Changed("title") {
		data.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("description") {
		data.Description, _ = cmd.Flags().GetString("description")
	}
	if cmd.Flags().Changed("start") {
		raw, _ := cmd.Flags().GetString("start")
		t, err := parseCLITime(raw)
		if err != nil {
			return data, err
		}
		data.StartDate = t
	}
	if cmd.Flags().Changed("end") {
		raw, _ := cmd.Flags().GetString("end")
		t, err := parseCLITime(raw)
		if err != nil {
			return data, err
		}
		data.EndDate = t
	}
	if cmd.Flags().Changed("status") {
		raw, _ := cmd.Flags().GetString("status")
		status, err := entities.ParseStatus(raw)
		if err != nil {
			return data, err
		}
		data.Status = status
	}
	if cmd.Flags().Changed("priority") {
		raw, _ := cmd.Flags().GetString("priority")
		priority, err := entities.ParsePriority(raw)
		if err != nil {
			return data, err
		}
		data.Priority = priority
	}
	if cmd.Flags().Changed("alarm") {
		raw, _ := cmd.Flags().GetString("alarm")
		t, err := parseCLITime(raw)
		if err != nil {
			return data, err
		}
		data.AlarmTime = &t
		data.AlarmEnabled = true
	}
	return data, nil
}

// NewAddCommand creates the add command
func NewAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.form.OpenForCreate()
			data, err := applyFormFlags(cmd, a.form.Form())
			if err != nil {
				return err
			}
			a.form.SetForm(data)
			return a.form.Submit(cmd.Context())
		},
	}

	addFormFlags(cmd)
	return cmd
}

// NewEditCommand creates the edit command
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := parseScheduleID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := a.form.OpenForEdit(ctx, id); err != nil {
				return err
			}
			data, err := applyFormFlags(cmd, a.form.Form())
			if err != nil {
				return err
			}
			a.form.SetForm(data)
			return a.form.Submit(ctx)
		},
	}

	addFormFlags(cmd)
	return cmd
}

// NewRemoveCommand creates the rm command
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := parseScheduleID(args[0])
			if err != nil {
				return err
			}
			return a.actions.Delete(cmd.Context(), id)
		},
	}
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a schedule's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := parseScheduleID(args[0])
			if err != nil {
				return err
			}
			status, err := entities.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return a.actions.UpdateStatus(cmd.Context(), id, status)
		},
	}
}

// NewAlarmCommand creates the alarm command
func NewAlarmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alarm <id> [time]",
		Short: "Set or clear a schedule's alarm",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := parseScheduleID(args[0])
			if err != nil {
				return err
			}

			clear, _ := cmd.Flags().GetBool("clear")
			if clear {
				return a.actions.ClearAlarm(cmd.Context(), id)
			}
			if len(args) < 2 {
				return fmt.Errorf("alarm time required unless --clear is given")
			}
			alarmTime, err := parseCLITime(args[1])
			if err != nil {
				return err
			}
			return a.actions.SetAlarm(cmd.Context(), id, alarmTime, true)
		},
	}

	cmd.Flags().Bool("clear", false, "Disable and remove the alarm")
	return cmd
}

// NewStatsCommand creates the stats command
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show schedule statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.loader.Stats(cmd.Context())
			if err != nil {
				a.view.Notify(services.UserMessage(err), ports.SeverityError)
				return err
			}

			fmt.Printf("Total:         %d\n", stats.Total)
			fmt.Printf("Pending:       %d\n", stats.Pending)
			fmt.Printf("In progress:   %d\n", stats.InProgress)
			fmt.Printf("Completed:     %d\n", stats.Completed)
			fmt.Printf("Cancelled:     %d\n", stats.Cancelled)
			fmt.Printf("High priority: %d\n", stats.HighPriority)
			fmt.Printf("Overdue:       %d\n", stats.Overdue)
			return nil
		},
	}
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create sample schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			now := time.Now()
			for _, input := range sampleSchedules(now) {
				if _, err := a.backend.Create(ctx, input); err != nil {
					return fmt.Errorf("seed schedule %q: %w", input.Title, err)
				}
			}
			a.view.Notify("Sample schedules created.", ports.SeveritySuccess)
			return a.loader.Reload(ctx)
		},
	}
}

func sampleSchedules(now time.Time) []entities.ScheduleInput {
	day := 24 * time.Hour
	return []entities.ScheduleInput{
		{
			Title:       "Team meeting",
			Description: "Weekly sync with the team",
			StartDate:   now.Add(2 * time.Hour),
			EndDate:     now.Add(3 * time.Hour),
			Status:      entities.StatusPending,
			Priority:    entities.PriorityMedium,
		},
		{
			Title:       "Project deadline",
			Description: "Final delivery for the quarter",
			StartDate:   now.Add(5 * day),
			EndDate:     now.Add(5*day + 8*time.Hour),
			Status:      entities.StatusInProgress,
			Priority:    entities.PriorityHigh,
		},
		{
			Title:     "Dentist appointment",
			StartDate: now.Add(-2 * day),
			EndDate:   now.Add(-2*day + time.Hour),
			Status:    entities.StatusCompleted,
			Priority:  entities.PriorityLow,
		},
		{
			Title:       "Code review",
			Description: "Review the storage layer changes",
			StartDate:   now.Add(-3 * time.Hour),
			EndDate:     now.Add(-2 * time.Hour),
			Status:      entities.StatusPending,
			Priority:    entities.PriorityHigh,
		},
	}
}

// NewClearCommand creates the clear command
func NewClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("this deletes every schedule; rerun with --yes to confirm")
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			schedules, err := a.backend.ListAll(ctx)
			if err != nil {
				a.view.Notify(services.UserMessage(err), ports.SeverityError)
				return err
			}
			for _, s := range schedules {
				if err := a.backend.Delete(ctx, s.ID); err != nil {
					return fmt.Errorf("delete schedule %d: %w", s.ID, err)
				}
			}
			a.view.Notify("All schedules deleted.", ports.SeveritySuccess)
			return a.loader.Reload(ctx)
		},
	}

	cmd.Flags().Bool("yes", false, "Skip the confirmation")
	return cmd
}

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the schedule list refreshed until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl := session.New(
				a.backend, a.loader, a.form, a.store, a.view,
				a.cfg.Refresh.AutoInterval, a.cfg.Refresh.StaleAfter,
				a.logger,
			)
			if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the development API server",
		Long:  "Start an HTTP server exposing the schedule API, backed by either local storage or Postgres.",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	var backend ports.Backend
	switch cfg.Server.Storage {
	case "postgres":
		db, err := database.Connect(cfg.Database)
		if err != nil {
			appLogger.Fatalw("Failed to connect to database", "error", err)
		}
		defer db.Close()
		backend = repository.NewScheduleRepository(db.DB)
	default:
		store, err := storage.New(cfg.Storage.Path)
		if err != nil {
			appLogger.Fatalw("Failed to open storage", "error", err)
		}
		backend, err = local.New(store, 0, appLogger)
		if err != nil {
			appLogger.Fatalw("Failed to initialize local backend", "error", err)
		}
	}

	srv, err := server.New(cfg, backend, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	go func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Errorw("Server shutdown failed", "error", err)
		}
	}()

	appLogger.Infow("Starting development server",
		"address", cfg.Server.Addr(),
		"storage", cfg.Server.Storage,
		"environment", cfg.App.Environment,
	)

	if err := srv.Start(cfg.Server.Addr()); err != nil {
		appLogger.Infow("Server stopped", "reason", err)
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations for the development server's Postgres storage (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

func newMigrator() (*migrate.Migrate, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	return m, func() { _ = db.Close() }
}

func runMigration(direction string) {
	m, cleanup := newMigrator()
	defer cleanup()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	m, cleanup := newMigrator()
	defer cleanup()

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ScheduleWorks version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ScheduleWorks v1.0.0")
		},
	}
}
