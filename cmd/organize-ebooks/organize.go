package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/organize-ebooks/pkg/config"
	"github.com/shishobooks/organize-ebooks/pkg/database"
	"github.com/shishobooks/organize-ebooks/pkg/journal"
	"github.com/shishobooks/organize-ebooks/pkg/migrations"
	"github.com/shishobooks/organize-ebooks/pkg/organizer"
	"github.com/shishobooks/organize-ebooks/pkg/report"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
	"github.com/shishobooks/organize-ebooks/pkg/version"
	"github.com/urfave/cli/v2"
)

// organizeFlags map one to one to config keys: --max-isbns sets max_isbns.
var organizeFlags = []cli.Flag{
	&cli.StringFlag{Name: "output-folder", Aliases: []string{"o"}, Usage: "folder where organized ebooks are moved"},
	&cli.StringFlag{Name: "output-folder-uncertain", Usage: "folder for ebooks organized without an ISBN"},
	&cli.StringFlag{Name: "output-folder-corrupt", Usage: "folder for corrupt files"},
	&cli.StringFlag{Name: "output-folder-pamphlets", Usage: "folder for pamphlets"},
	&cli.BoolFlag{Name: "dry-run", Aliases: []string{"d"}, Usage: "only log what would be done"},
	&cli.BoolFlag{Name: "symlink-only", Aliases: []string{"s"}, Usage: "symlink organized files instead of moving them"},
	&cli.BoolFlag{Name: "keep-metadata", Usage: "save the fetched metadata next to each organized file"},
	&cli.BoolFlag{Name: "reverse", Aliases: []string{"r"}, Usage: "process files in reverse name order"},
	&cli.BoolFlag{Name: "skip-archives", Usage: "don't process archives other than EPUB"},
	&cli.BoolFlag{Name: "organize-without-isbn", Usage: "use the filename and embedded metadata when no ISBN is found"},
	&cli.StringFlag{Name: "corruption-check", Usage: "true, false or check_only"},
	&cli.StringFlag{Name: "ocr-enabled", Usage: "true, false or always"},
	&cli.IntFlag{Name: "max-isbns", Usage: "how many of the found ISBNs to look up"},
	&cli.StringSliceFlag{Name: "isbn-metadata-fetch-order", Usage: "metadata sources for ISBN lookups"},
	&cli.StringSliceFlag{Name: "organize-without-isbn-sources", Usage: "metadata sources for lookups without ISBN"},
	&cli.StringFlag{Name: "output-filename-template", Usage: "Go template for the new filename"},
	&cli.StringFlag{Name: "journal-file-path", Usage: "sqlite file to record outcomes in"},
	&cli.StringFlag{Name: "lock-file-path", Usage: "lock file preventing concurrent runs"},
	&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
}

func organizeCommand() *cli.Command {
	flags := append([]cli.Flag{}, organizeFlags...)
	flags = append(flags, &cli.BoolFlag{Name: "report", Usage: "print every file in the final report, not only the totals"})

	return &cli.Command{
		Name:      "organize",
		Usage:     "organize a folder of ebooks",
		ArgsUsage: "[folder_to_organize]",
		Flags:     flags,
		Action:    runOrganize,
	}
}

func runOrganize(c *cli.Context) error {
	opts := []config.Option{config.WithOverrides(overridesFromFlags(c))}
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg, err := config.New(opts...)
	if err != nil {
		return err
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	runID := uuid.New().String()
	log = log.ID(runID)
	ctx, cancel := context.WithCancel(log.WithContext(c.Context))
	defer cancel()

	log.Info("starting organize-ebooks", logger.Data{"version": version.Version, "folder": cfg.FolderToOrganize})

	var svc *journal.Service
	if cfg.JournalFilePath != "" {
		db, err := database.New(cfg)
		if err != nil {
			return errors.Wrap(err, "couldn't open journal")
		}
		defer db.Close()
		if _, err := migrations.BringUpToDate(ctx, db); err != nil {
			return errors.Wrap(err, "couldn't migrate journal")
		}
		svc = journal.NewService(db)
	}
	recorder := journal.NewRecorder(ctx, runID, svc)

	org, err := organizer.NewFromConfig(cfg, shell.NewExecRunner(), recorder)
	if err != nil {
		return err
	}

	graceful := signals.Setup()
	go func() {
		select {
		case <-graceful:
			log.Info("stopping after the current file")
			cancel()
		case <-ctx.Done():
		}
	}()

	runErr := org.Run(ctx)

	if err := report.Write(os.Stdout, recorder.Outcomes(), report.Options{
		Colorize:   report.IsTerminal(os.Stdout),
		TotalsOnly: !c.Bool("report"),
	}); err != nil {
		log.Err(err).Warn("couldn't print report")
	}

	if runErr != nil && errors.Is(runErr, context.Canceled) {
		log.Warn("run cancelled", logger.Data{"processed": len(recorder.Outcomes())})
		return nil
	}
	return runErr
}

// overridesFromFlags returns the config values of the flags given on the
// command line, keyed by config key.
func overridesFromFlags(c *cli.Context) map[string]interface{} {
	overrides := map[string]interface{}{}
	if c.Args().Present() {
		overrides["folder_to_organize"] = c.Args().First()
	}
	for _, f := range organizeFlags {
		name := f.Names()[0]
		if !c.IsSet(name) {
			continue
		}
		key := strcase.ToSnake(name)
		switch f.(type) {
		case *cli.BoolFlag:
			overrides[key] = c.Bool(name)
		case *cli.IntFlag:
			overrides[key] = c.Int(name)
		case *cli.StringSliceFlag:
			overrides[key] = c.StringSlice(name)
		default:
			overrides[key] = c.String(name)
		}
	}
	return overrides
}
