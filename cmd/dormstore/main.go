package main

import (
	"io"
	"os"

	"go.uber.org/zap"

	"dormstore/internal/config"
	"dormstore/internal/http/handlers"
	applog "dormstore/internal/log"
	"dormstore/internal/repos"
)

func main() {
	cfg := config.Load()

	var out io.Writer = os.Stdout
	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.L().Warn("log.file.open", zap.String("path", cfg.LogFile), zap.Error(err))
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.SetLogger(applog.New(out, applog.ParseLevel(cfg.LogLevel)))
	defer applog.Sync()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		applog.L().Fatal("db.open", zap.String("dsn", cfg.DBDSN), zap.Error(err))
	}
	defer db.Close()

	app := handlers.NewApp(db, cfg)
	applog.L().Info("server.start", zap.String("port", cfg.Port), zap.String("db", cfg.DBDSN))
	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.L().Error("server.stop", zap.Error(err))
	}
}
