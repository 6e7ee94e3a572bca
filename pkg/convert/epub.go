package convert

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/htmlutil"
)

// markupExtensions are the EPUB members whose text is extracted. The package
// document and the navigation files are included since they often carry the
// ISBN as an identifier.
var markupExtensions = map[string]bool{
	".xhtml": true, ".html": true, ".htm": true, ".xml": true, ".opf": true, ".ncx": true,
}

// maxMemberSize bounds how much of a single member is read.
const maxMemberSize = 64 << 20

// epubText writes the text of every document of the EPUB at input to output,
// in archive order.
func epubText(input, output string) error {
	r, err := zip.OpenReader(input)
	if err != nil {
		return errors.Wrap(err, "failed to open epub")
	}
	defer r.Close()

	var b strings.Builder
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if !markupExtensions[ext] && ext != ".txt" {
			continue
		}

		text, err := memberText(f, ext)
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return errors.WithStack(os.WriteFile(output, []byte(b.String()), 0600))
}

func memberText(f *zip.File, ext string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", errors.Wrapf(err, "failed to open entry %q", f.Name)
	}
	defer rc.Close()

	limited := io.LimitReader(rc, maxMemberSize)
	if ext == ".txt" {
		data, err := io.ReadAll(limited)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read entry %q", f.Name)
		}
		return string(data), nil
	}

	text, err := htmlutil.Text(limited)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse entry %q", f.Name)
	}
	return text, nil
}
