package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/tictactoe-sessions/internal"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/config"
)

// main - is the entry point of the application. It parses flags, loads the configuration,
// initializes the logger and runs the application.
func main() {
	cmd := &cli.Command{
		Name:  "tictactoe-sessions",
		Usage: "serve tic-tac-toe sessions over HTTP and WebSocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./config.yml",
				Usage:   "path to the YAML config file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "app run failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	conf, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	logger := initLogger(conf)

	return app.RunApp(ctx, logger, conf)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
