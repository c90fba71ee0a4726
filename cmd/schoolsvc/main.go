package main

import (
	"github.com/sirupsen/logrus"

	"github.com/you/schoolsvc/internal/app"
	"github.com/you/schoolsvc/internal/config"
	"github.com/you/schoolsvc/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := app.Run(cfg, log); err != nil {
		log.Fatalf("app: %v", err)
	}
}
