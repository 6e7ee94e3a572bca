package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/epub"
)

func main() {
	log := logger.New()

	var opts struct {
		ISBNsOnly bool `short:"i" long:"isbns-only" description:"Only print the ISBN identifiers"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-epub <path/to/file.epub>")
		os.Exit(1)
	}

	opf, err := epub.Parse(args[0])
	if err != nil {
		log.Err(err).Fatal("epub parse error")
	}
	if opts.ISBNsOnly {
		for _, isbn := range opf.ISBNs() {
			fmt.Println(isbn)
		}
		return
	}
	fmt.Print(opf.Text())
}
