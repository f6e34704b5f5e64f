package app

import (
	"errors"
	"fmt"
	"os"

	"teamchat/internal/chatapp"
	"teamchat/internal/config"
	"teamchat/internal/db"
)

// App bundles everything the admin console needs: the loaded config,
// the open database, and the chat coordinator over it.
type App struct {
	ConfigPath string
	Config     *config.Config
	DBPath     string
	DB         *db.DB

	Chat *chatapp.App
}

func New(configPath string) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		cfg = config.Default()
	}

	if err := os.MkdirAll(cfg.Paths.Data, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	database, err := db.Open(cfg.Paths.Database)
	if err != nil {
		return nil, nil, err
	}

	chat, err := chatapp.New(cfg, database, nil, nil)
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}

	a := &App{
		ConfigPath: configPath,
		Config:     cfg,
		DBPath:     cfg.Paths.Database,
		DB:         database,
		Chat:       chat,
	}

	// Best-effort online use: reduce SQLITE_BUSY failures.
	_, _ = database.Exec("PRAGMA busy_timeout = 5000")

	cleanup := func() {
		_ = database.Close()
	}

	return a, cleanup, nil
}
