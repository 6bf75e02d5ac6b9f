package main

import (
	"log"

	corecmd "github.com/m3rciful/gatebot/core/cmd"
	coreconfig "github.com/m3rciful/gatebot/core/config"
	"github.com/m3rciful/gatebot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("gatebot: %v", err)
	}
}
