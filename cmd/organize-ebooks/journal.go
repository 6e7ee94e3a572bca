package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/organize-ebooks/pkg/config"
	"github.com/shishobooks/organize-ebooks/pkg/database"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/journal"
	"github.com/shishobooks/organize-ebooks/pkg/migrations"
	"github.com/shishobooks/organize-ebooks/pkg/report"
	"github.com/urfave/cli/v2"
)

func journalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "show the outcomes recorded by previous runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "journal-file-path", Usage: "sqlite file the outcomes were recorded in"},
			&cli.StringFlag{Name: "run", Usage: "run ID to show, defaults to the latest run"},
			&cli.BoolFlag{Name: "all", Usage: "show every run"},
			&cli.StringSliceFlag{Name: "kind", Usage: "only show these outcomes"},
			&cli.IntFlag{Name: "limit", Usage: "show at most this many outcomes"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: runJournal,
	}
}

func runJournal(c *cli.Context) error {
	overrides := map[string]interface{}{}
	if c.IsSet("journal-file-path") {
		overrides["journal_file_path"] = c.String("journal-file-path")
	}
	opts := []config.Option{config.WithoutFolders(), config.WithOverrides(overrides)}
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg, err := config.New(opts...)
	if err != nil {
		return err
	}
	if cfg.JournalFilePath == "" {
		return errcodes.Configuration("missing required config: set ORGANIZE_EBOOKS_JOURNAL_FILE_PATH or journal_file_path in the config file")
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := log.WithContext(c.Context)

	db, err := database.New(cfg)
	if err != nil {
		return errors.Wrap(err, "couldn't open journal")
	}
	defer db.Close()
	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		return errors.Wrap(err, "couldn't migrate journal")
	}
	svc := journal.NewService(db)

	listOpts := journal.ListOutcomesOptions{
		RunID: c.String("run"),
		Kinds: c.StringSlice("kind"),
		Limit: c.Int("limit"),
	}
	if listOpts.RunID == "" && !c.Bool("all") {
		if listOpts.RunID, err = svc.LatestRunID(ctx); err != nil {
			return err
		}
		if listOpts.RunID == "" {
			fmt.Println("The journal is empty")
			return nil
		}
	}

	outcomes, err := svc.ListOutcomes(ctx, listOpts)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		out, err := json.MarshalIndent(outcomes, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Println(string(out))
		return nil
	}

	return report.Write(os.Stdout, outcomes, report.OptionsFor(os.Stdout))
}
