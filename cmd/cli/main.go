package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/akeren/signal-waitlist/config"
	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/intake"
	"github.com/akeren/signal-waitlist/pkg/migrations"
	"github.com/akeren/signal-waitlist/pkg/utils"
)

const defaultEndpoint = "http://localhost:8080/api/waitlist"

type command struct {
	usage string
	run   func(ctx context.Context, logger *log.Logger, args []string) error
}

var commands = map[string]command{
	"migrate": {"migrate            Run database migrations and exit", migrate},
	"join":    {"join [endpoint]    Sign up to the waitlist interactively", join},
	"stats":   {"stats [endpoint]   Print waitlist counts per platform and city", stats},
}

var commandOrder = []string{"migrate", "join", "stats"}

func main() {
	logger := log.NewLoggerWithJSONOutput()
	config.InitializeEnvFile(logger)

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage()
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", name)
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.run(ctx, logger, args[1:]); err != nil {
		logger.Error("Command failed", "command", name, "error", err.Error())
		stop()
		os.Exit(1)
	}
}

func migrate(ctx context.Context, logger *log.Logger, _ []string) error {
	if !config.IsDatabaseConfigured() {
		return errors.New("no database configured; set APP_DATABASE_URL or POSTGRES_HOST and POSTGRES_DB_NAME")
	}

	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	// Up closes sqlDB along with its migrator.
	version, err := migrations.Up(ctx, sqlDB, migrations.Config{
		Dir:    utils.EnvOr("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	logger.Info("Database migrations completed", "version", version)
	return nil
}

func join(ctx context.Context, _ *log.Logger, args []string) error {
	endpoint := waitlistEndpoint(args)
	fmt.Printf("Joining the Signal waitlist at %s\n", endpoint)

	form := intake.NewForm(endpoint, intake.WithLogger(log.NewLoggerWithWriter(os.Stderr)), intake.WithResetDelay(0))
	defer form.Close()

	_, err := runJoin(ctx, os.Stdin, os.Stdout, form)
	return err
}

func stats(ctx context.Context, _ *log.Logger, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	list, err := fetchWaitlist(ctx, &http.Client{Timeout: 20 * time.Second}, waitlistEndpoint(args))
	if err != nil {
		return err
	}

	printStats(os.Stdout, summarizeWaitlist(list))
	return nil
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range commandOrder {
		fmt.Println("  " + commands[name].usage)
	}
	fmt.Println()
	fmt.Printf("The endpoint defaults to WAITLIST_ENDPOINT, then %s\n", defaultEndpoint)
}

func waitlistEndpoint(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return utils.EnvOr("WAITLIST_ENDPOINT", defaultEndpoint)
}
