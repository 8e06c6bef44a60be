// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Gatherd is the event-coordination bot daemon. It connects to a
// Matrix homeserver with a bot account, long-polls /sync for room
// messages, and feeds commands ("rsvp init", "rsvp set date ...",
// attendance confirmations) through the dispatch engine. Event records
// persist in a local SQLite store; an optional Google Calendar bridge
// mirrors events with a date, time, and duration.
//
// Configuration is a single YAML file named by --config or the
// GATHER_CONFIG environment variable. A .env file in the working
// directory is loaded first, so deployments can keep GATHER_CONFIG
// there.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/gather/lib/calendar"
	"github.com/bureau-foundation/gather/lib/clock"
	"github.com/bureau-foundation/gather/lib/config"
	"github.com/bureau-foundation/gather/lib/ref"
	"github.com/bureau-foundation/gather/lib/rsvp"
	"github.com/bureau-foundation/gather/lib/secret"
	"github.com/bureau-foundation/gather/lib/store"
	"github.com/bureau-foundation/gather/lib/version"
	"github.com/bureau-foundation/gather/messaging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("gatherd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (or set "+config.EnvVar+")")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("gatherd %s\n", version.Info())
		return nil
	}

	// A missing .env is fine; an unreadable one is not worth dying for
	// either — the config path can still come from the flag.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := config.Path(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	botUserID, err := ref.ParseUserID(cfg.UserID)
	if err != nil {
		return fmt.Errorf("config user_id: %w", err)
	}

	eventStore, err := store.Open(store.Config{
		Path:   cfg.DatabasePath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening event store: %w", err)
	}
	defer eventStore.Close()

	var bridge calendar.Bridge
	if cfg.Calendar != nil {
		google, err := calendar.NewGoogle(ctx, logger, *cfg.Calendar)
		if err != nil {
			if !errors.Is(err, calendar.ErrConfigMissing) {
				return fmt.Errorf("calendar bridge: %w", err)
			}
			logger.Warn("calendar config incomplete, sync disabled")
			bridge = calendar.Disabled()
		} else {
			bridge = google
		}
	} else {
		bridge = calendar.Disabled()
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	// Move the token out of the config struct into protected memory.
	token, err := secret.NewFromBytes([]byte(cfg.AccessToken))
	if err != nil {
		return fmt.Errorf("protecting access token: %w", err)
	}
	cfg.AccessToken = ""

	session := client.SessionFromToken(botUserID, token)
	defer session.Close()

	whoami, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("validating matrix session: %w", err)
	}
	if whoami != botUserID {
		return fmt.Errorf("access token belongs to %s, config says %s", whoami, botUserID)
	}
	logger.Info("matrix session valid", "user_id", whoami)

	dispatcher := rsvp.New(rsvp.Options{
		Store:          eventStore,
		Bridge:         bridge,
		Directory:      newSessionDirectory(session, logger),
		Router:         &sessionRouter{session: session},
		Logger:         logger,
		Prefix:         cfg.Prefix,
		VIPs:           cfg.VIPs,
		VIPYesPrefixes: cfg.VIPYesPrefixes,
		VIPNoSuffixes:  cfg.VIPNoSuffixes,
		Contributors:   cfg.Contributors,
		Testers:        cfg.Testers,
	})

	p := newPump(session, dispatcher, pumpOptions{
		Prefix: cfg.Prefix,
		Clock:  clock.Real(),
		Logger: logger,
	})
	return p.run(ctx)
}
