package main

import (
	"context"
	"os"

	"github.com/Temutjin2k/ride-realtime/config"
	"github.com/Temutjin2k/ride-realtime/internal/app"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		config.PrintHelp()
		os.Exit(2)
	}
	if flags.Help {
		config.PrintHelp()
		return
	}

	ctx := context.Background()
	log := logger.InitLogger("ride-realtime", logger.LevelDebug)

	cfg, err := config.NewConfig(flags.ConfigPath)
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		os.Exit(1)
	}

	// Printing configuration
	config.PrintConfig(cfg)

	log = logger.InitLogger(cfg.ServiceName, cfg.LogLevel)

	// Creating application
	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	// Running the application
	if err = application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
