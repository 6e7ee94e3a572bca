package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/version"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	// A missing .env file is fine, everything can come from the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Err(err).Warn("couldn't load .env file")
	}

	app := &cli.App{
		Name:        "organize-ebooks",
		Usage:       "find the ISBNs of ebooks and rename them from fetched metadata",
		Description: "Recursively scans a folder for ebooks, identifies them by ISBN and moves them to organized, uncertain, pamphlet or corrupt folders.",
		Version:     version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"ORGANIZE_EBOOKS_CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			organizeCommand(),
			journalCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}
