package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/config"
	"github.com/shishobooks/organize-ebooks/pkg/organizer"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

func main() {
	var opts struct {
		Config   string `short:"c" long:"config" description:"A path to a config file"`
		OCR      string `long:"ocr" description:"Override ocr_enabled (true, false or always)"`
		LogLevel string `short:"l" long:"log-level" default:"warn" description:"The log level"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		logger.New().Err(err).Fatal("flags parse error")
	}

	if len(args) == 0 {
		fmt.Println("go run ./cmd/scripts/debug/find-isbns [--ocr=always] <path/to/file>...")
		os.Exit(1)
	}

	overrides := map[string]interface{}{"log_level": opts.LogLevel}
	if opts.OCR != "" {
		overrides["ocr_enabled"] = opts.OCR
	}
	cfgOpts := []config.Option{config.WithoutFolders(), config.WithOverrides(overrides)}
	if opts.Config != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(opts.Config))
	}

	log := logger.NewWithLevel(opts.LogLevel)
	cfg, err := config.New(cfgOpts...)
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	searcher, err := organizer.NewSearcher(cfg, shell.NewExecRunner())
	if err != nil {
		log.Err(err).Fatal("searcher error")
	}

	ctx := log.WithContext(context.Background())
	for _, path := range args {
		isbns, err := searcher.Search(ctx, path)
		if err != nil {
			log.Err(err).Error("search error", logger.Data{"path": path})
			continue
		}
		fmt.Printf("%s\t%s\n", path, strings.Join(isbns, cfg.ISBNReturnSeparator))
	}
}
