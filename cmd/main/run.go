package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/matt-steen/care-tracker/pkg/api"
	"github.com/matt-steen/care-tracker/pkg/app"
	"github.com/matt-steen/care-tracker/pkg/config"
	"github.com/matt-steen/care-tracker/pkg/controller"
	"github.com/matt-steen/care-tracker/pkg/db"
	"github.com/matt-steen/care-tracker/pkg/notify"
	"github.com/matt-steen/care-tracker/pkg/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const filePerms = 0o666

// setupFileLogger sends the global logger to the configured log file, since the terminal ui
// owns stdout. The returned func closes the file.
func setupFileLogger(cfg config.Config) (func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(filePerms))
	if err != nil {
		return nil, fmt.Errorf("error opening log file %s: %w", cfg.LogFile, err)
	}

	zerolog.SetGlobalLevel(level)

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: logFile, TimeFormat: "2006-01-02_15:04:05", NoColor: true,
	})

	return func() { logFile.Close() }, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	closeLog, err := setupFileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info().Str("api", cfg.API.BaseURL).Msg("starting application...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	device, err := db.NewDatabase(ctx, cfg.Notifications.Database, !cfg.Notifications.Blocked, loc)
	if err != nil {
		return err
	}
	defer device.Close()

	remote := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	scheduler := notify.NewScheduler(device, loc)
	a := app.New(remote, session.NewStore(), scheduler, loc)

	return controller.NewController(ctx, a, scheduler, cfg.Notifications.PollInterval).Go()
}
