// Command justletic runs the Justletic web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/aguilalv/justletic/internal/accounts"
	"github.com/aguilalv/justletic/internal/config"
	"github.com/aguilalv/justletic/internal/db"
	"github.com/aguilalv/justletic/internal/link"
	"github.com/aguilalv/justletic/internal/spotify"
	"github.com/aguilalv/justletic/internal/strava"
	"github.com/aguilalv/justletic/internal/web"
	webfs "github.com/aguilalv/justletic/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	stravaClient := strava.NewClient(strava.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURI:  cfg.Strava.RedirectURI,
	})
	spotifyClient := spotify.NewClient(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURI:  cfg.Spotify.RedirectURI,
	})

	accountSvc := accounts.New(database.Users())
	linker := link.New(database.Keys(), stravaClient, spotifyClient, log)
	sessions := web.NewDBSessionStore(database)

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		Accounts:    accountSvc,
		Linker:      linker,
		Sessions:    sessions,
		Users:       database.Users(),
		Keys:        database.Keys(),
		DBSessions:  database.Sessions(),
		TemplatesFS: templates,
		StaticFS:    static,
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
