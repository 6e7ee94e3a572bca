package epub

import (
	"context"
	"strconv"
	"strings"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
)

// MetadataReader matches calibre.MetadataReader.
type MetadataReader interface {
	ReadMetadata(ctx context.Context, path string) (string, error)
}

// Text renders the package metadata in the "Field : Value" layout of
// ebook-meta.
func (o *OPF) Text() string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, metadata.Line(key, value))
		}
	}

	add("Title", o.Title)
	add("Author(s)", strings.Join(o.Authors, " & "))
	add("Publisher", o.Publisher)
	if o.Series != "" {
		series := o.Series
		if o.SeriesIndex != nil {
			series += " #" + strconv.FormatFloat(*o.SeriesIndex, 'f', -1, 64)
		}
		add("Series", series)
	}
	add("Languages", o.Language)
	add("Published", o.Published)

	ids := make([]string, 0, len(o.Identifiers))
	for _, id := range o.Identifiers {
		ids = append(ids, id.Scheme+":"+id.Value)
	}
	add("Identifiers", strings.Join(ids, ", "))

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Reader reads embedded metadata through next and answers for EPUB files
// itself when next cannot run.
type Reader struct {
	next MetadataReader
}

func NewReader(next MetadataReader) *Reader {
	return &Reader{next: next}
}

func (r *Reader) ReadMetadata(ctx context.Context, path string) (string, error) {
	text, err := r.next.ReadMetadata(ctx, path)
	if err == nil || !filetype.IsEPUB(path, "") {
		return text, err
	}
	if !errcodes.HasCode(err, errcodes.CodeToolUnavailable) && !errcodes.HasCode(err, errcodes.CodeToolInvocation) {
		return text, err
	}

	opf, perr := Parse(path)
	if perr != nil {
		logger.FromContext(ctx).Err(perr).Debug("could not read epub package document", logger.Data{"path": path})
		return text, err
	}
	return opf.Text(), nil
}
