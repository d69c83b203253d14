// Package main is the ExecutionOS command line client. It talks to the
// hosted platform: auth, projects, tasks and the per-project activity
// feed, including a live tail over the realtime channel.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/execos/execos/internal/activity"
	"github.com/execos/execos/internal/config"
	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/platform"
	"github.com/execos/execos/internal/policy"
	"github.com/execos/execos/internal/repository"
	"github.com/execos/execos/internal/service"
	"github.com/execos/execos/internal/session"
)

var buildVersion = "dev"

// opTimeout bounds a single command's remote round trips. The activity
// tail is the exception; it runs until interrupted.
const opTimeout = 30 * time.Second

func main() {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "version", "--version", "-v":
		fmt.Println(buildVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize client", "error", err)
		os.Exit(1)
	}

	if err := a.run(cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the platform client and the service layer for the CLI.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *platform.Client
	sessions *session.Manager
	projects *service.ProjectService
	tasks    *service.TaskService
	feed     *activity.Reader
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	httpClient := platform.NewHTTPClient()
	httpClient.Timeout = cfg.HTTPTimeout

	client, err := platform.NewClient(cfg.Endpoint, cfg.APIKey,
		platform.WithHTTPClient(httpClient),
		platform.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewNoop()
	repo := repository.New(platform.NewDatabases(client))
	pol := policy.NewMembershipPolicy(repo, logger)
	writer := activity.NewWriter(repo, logger, recorder)
	realtime := platform.NewRealtime(client, platform.WithHandshakeTimeout(cfg.RealtimeHandshakeTimeout))

	logger.Debug("client configured", "endpoint", cfg.Endpoint, "env", cfg.AppEnv)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		sessions: session.NewManager(client, platform.NewAccount(client), logger, recorder),
		projects: service.NewProjectService(repo, pol, writer, logger, recorder),
		tasks:    service.NewTaskService(repo, pol, writer, logger, recorder),
		feed:     activity.NewReader(repo, activity.NewRealtimeOpener(realtime), logger, recorder),
	}, nil
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.commandRegister(args)
	case "login":
		return a.commandLogin(args)
	case "logout":
		return a.commandLogout(args)
	case "whoami":
		return a.commandWhoami(args)
	case "project":
		return a.commandProject(args)
	case "task":
		return a.commandTask(args)
	case "activity":
		return a.commandActivity(args)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
		// Development runs carry source positions in log records.
		AddSource: cfg.IsDevelopment(),
	}

	// Diagnostics go to stderr; stdout is reserved for command output.
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printUsage() {
	fmt.Printf("execos CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	execos register --email <email> [--name <name>] [--password <secret>]
	execos login --email <email> [--password <secret>]
	execos logout
	execos whoami
	execos project create --name <name>
	execos project list
	execos project add-member --project <project-id> --user <user-id>
	execos project members --project <project-id>
	execos task create --project <project-id> --title <title> [--description <text>] [--assignee <user-id>] [--due <date>]
	execos task assign --task <task-id> --assignee <user-id>
	execos task status --task <task-id> --status <todo|doing|done>
	execos task list --project <project-id>
	execos activity list --project <project-id> [--limit N]
	execos activity tail --project <project-id>
	execos version

The platform API key is read from EXECOS_API_KEY; a local .env file
is loaded when present.
`)
}
