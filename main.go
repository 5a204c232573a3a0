//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Spotify now-playing relay. Authenticates a single local user
// with Spotify once and serves their currently playing track as simple JSON.
//

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/cloudmanic/spotify-now-playing/spotify"
)

// main is the entry point for the application.
func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Flags on the root command are inherited
// by every subcommand, so they work before or after the command name.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "spotify-now-playing",
		Usage:   "Authenticate with Spotify and serve the currently playing track",
		Version: "0.1.0",
		Flags:   rootFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			statusCommand(),
			nowPlayingCommand(),
		},
		Action: runServe,
	}
}

// rootFlags returns the config and address flags shared by all commands.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   spotify.DefaultConfigFile,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Address the server listens on",
		},
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port the server listens on",
		},
		&cli.StringFlag{
			Name:  "static",
			Usage: "Directory of static files to serve",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable /api/debug/token (local development only)",
		},
	}
}

// serveCommand runs the HTTP server.
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the login and now-playing server",
		Action: runServe,
	}
}

// urlFlag overrides the server address the query commands talk to.
func urlFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "url",
		Usage: "Base URL of the server (defaults to the configured address)",
	}
}

// statusCommand queries /api/health on a running server.
func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show health and auth status of a running server",
		Flags:  []cli.Flag{urlFlag()},
		Action: runStatus,
	}
}

// nowPlayingCommand queries /api/now-playing on a running server.
func nowPlayingCommand() *cli.Command {
	return &cli.Command{
		Name:    "now-playing",
		Aliases: []string{"np"},
		Usage:   "Show the currently playing track from a running server",
		Flags:   []cli.Flag{urlFlag()},
		Action:  runNowPlaying,
	}
}

// loadConfig loads configuration and applies flag overrides.
func loadConfig(cmd *cli.Command) (*spotify.Config, error) {
	cfg, err := spotify.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if v := cmd.String("host"); v != "" {
		cfg.Server.Host = v
	}
	if v := cmd.String("port"); v != "" {
		cfg.Server.Port = v
	}
	if v := cmd.String("static"); v != "" {
		cfg.Server.StaticDir = v
	}
	if cmd.Bool("debug") {
		cfg.Server.DebugEndpoints = true
	}

	return cfg, nil
}

// runServe validates the config and runs the server until signalled.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := spotify.NewLogger(nil, cfg.Server.LogLevel)
	server := spotify.NewServer(cfg, spotify.NewSession(), spotify.WithLogger(logger))

	printBanner(os.Stdout, cfg, server.Routes())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}

// runStatus prints the health of a running server.
func runStatus(ctx context.Context, cmd *cli.Command) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	health, err := client.Health(ctx)
	if err != nil {
		return err
	}

	printHealthTable(os.Stdout, client.baseURL, health)
	return nil
}

// runNowPlaying prints the track a running server reports.
func runNowPlaying(ctx context.Context, cmd *cli.Command) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	playing, err := client.NowPlaying(ctx)
	if err != nil {
		return err
	}

	printNowPlayingTable(os.Stdout, playing)
	return nil
}

// newAPIClient points a client at --url or the configured server address.
func newAPIClient(cmd *cli.Command) (*apiClient, error) {
	baseURL := cmd.String("url")
	if baseURL == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		baseURL = cfg.BaseURL()
	}
	return newClient(baseURL, nil), nil
}
