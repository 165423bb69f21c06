package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ckuethe/astro-tools/internal/cli"
	"github.com/ckuethe/astro-tools/internal/config"
	"github.com/ckuethe/astro-tools/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *slog.Logger
	if cfg.Logging.FileOutput {
		log, err = logging.Setup(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
			os.Exit(1)
		}
	} else {
		log = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	rootCmd := cli.NewRootCmd(cfg, log)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
