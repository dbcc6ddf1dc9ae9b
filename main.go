package main

import (
	"context"
	"embed"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"vocaloop/internal/config"
	"vocaloop/internal/telemetry"
	"vocaloop/internal/version"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, cfgErr := config.Load()

	closer, err := telemetry.InitLogger(cfg.Logging, os.Stderr)
	if err != nil {
		log.Warn().Err(err).Msg("file logging disabled")
	} else {
		defer closer.Close()
	}

	shutdown, err := telemetry.Init(context.Background(), cfg.Telemetry, version.Version)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	} else {
		defer shutdown()
	}

	app := NewApp(cfg, cfgErr)

	err = wails.Run(&options.App{
		Title:     "VocaLoop",
		Width:     720,
		Height:    760,
		MinWidth:  480,
		MinHeight: 560,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("application exited with error")
	}
}
