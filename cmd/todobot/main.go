package main

import (
	"log"

	corecmd "github.com/m3rciful/todobot/core/cmd"
	"github.com/m3rciful/todobot/internal/bot"
	"github.com/m3rciful/todobot/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.App, error) {
			return bot.Bootstrap(cfg.(*config.Config))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
