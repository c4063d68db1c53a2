package main

import (
	"entrate/internal/cli"
	"entrate/internal/desktop"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(logger)

	result := cli.InitBackend(logger, cfg)
	records := cli.NewRecordService(result)

	logger.Info("Starting entrate desktop", "backend", cfg.DataBackend)

	win := desktop.NewWindow(desktop.NewController(records))
	win.Run()

	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}
	logger.Info("Desktop window closed")
}
