//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Terminal output for the CLI commands.
//

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cloudmanic/spotify-now-playing/spotify"
)

// printBanner shows where the server listens and which endpoints it serves.
func printBanner(w io.Writer, cfg *spotify.Config, routes []string) {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "🎵 Spotify now-playing running on %s\n", cfg.BaseURL())
	fmt.Fprintf(w, "📝 Visit %s/login to get started\n", cfg.BaseURL())
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Endpoint"})

	for i, route := range routes {
		t.AppendRow(table.Row{i + 1, route})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintln(w)
	green.Fprintf(w, "Redirect URI: %s\n", cfg.Spotify.RedirectURI)
}

// printHealthTable displays the server status with colors to indicate
// whether a Spotify token is stored.
func printHealthTable(w io.Writer, baseURL string, health *spotify.HealthResponse) {
	auth := color.RedString("✗ Not authenticated")
	if health.Authenticated {
		auth = color.GreenString("● Authenticated")
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Server", "Status", "Spotify"})
	t.AppendRow(table.Row{
		color.HiBlackString(baseURL),
		health.Status,
		auth,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// printNowPlayingTable displays the current track, or a note when nothing
// is playing.
func printNowPlayingTable(w io.Writer, playing *spotify.NowPlaying) {
	if playing.Track == nil {
		color.New(color.FgYellow).Fprintln(w, "Nothing playing right now")
		return
	}

	state := "Paused"
	if playing.IsPlaying {
		state = color.GreenString("● Playing")
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Track", "Artist", "Album", "Status"})
	t.AppendRow(table.Row{
		color.New(color.Bold).Sprint(playing.TrackName),
		playing.ArtistName,
		playing.AlbumName,
		state,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if playing.TrackURL != "" {
		fmt.Fprintln(w, color.HiBlackString(playing.TrackURL))
	}
}

// printError writes a command failure to stderr.
func printError(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
}
