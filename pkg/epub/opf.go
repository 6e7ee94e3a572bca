// Package epub reads the package document of an EPUB without any external
// tool, so embedded metadata stays available when calibre is not installed.
package epub

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
)

const containerPath = "META-INF/container.xml"

// Identifier is a dc:identifier with its scheme resolved.
type Identifier struct {
	Scheme string
	Value  string
}

type OPF struct {
	Title       string
	Authors     []string
	Publisher   string
	Published   string
	Language    string
	Series      string
	SeriesIndex *float64
	Identifiers []Identifier
}

// ISBNs returns the valid ISBNs among the identifiers.
func (o *OPF) ISBNs() []string {
	var isbns []string
	for _, id := range o.Identifiers {
		if id.Scheme == "isbn" {
			isbns = append(isbns, id.Value)
		}
	}
	return isbns
}

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type Package struct {
	XMLName          xml.Name `xml:"package"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`
	Metadata         struct {
		Title []struct {
			Text string `xml:",chardata"`
			ID   string `xml:"id,attr"`
		} `xml:"title"`
		Creator []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Role   string `xml:"role,attr"`
			FileAs string `xml:"file-as,attr"`
		} `xml:"creator"`
		Publisher  string `xml:"publisher"`
		Identifier []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Scheme string `xml:"scheme,attr"`
		} `xml:"identifier"`
		Date     []string `xml:"date"`
		Language []string `xml:"language"`
		Meta     []struct {
			Text     string `xml:",chardata"`
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			ID       string `xml:"id,attr"`
			Refines  string `xml:"refines,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
}

// Parse opens the EPUB at filename and parses its package document.
func Parse(filename string) (*OPF, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer zr.Close()

	opfPath, err := rootfile(&zr.Reader)
	if err != nil {
		return nil, err
	}

	f, err := zr.Open(opfPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	return ParseOPF(f)
}

// rootfile finds the package document through container.xml, falling back to
// the first .opf entry for books with a broken container.
func rootfile(zr *zip.Reader) (string, error) {
	if f, err := zr.Open(containerPath); err == nil {
		defer f.Close()
		c := &container{}
		if err := xml.NewDecoder(f).Decode(c); err == nil {
			for _, rf := range c.Rootfiles {
				if rf.FullPath != "" {
					return rf.FullPath, nil
				}
			}
		}
	}
	for _, file := range zr.File {
		if strings.EqualFold(path.Ext(file.Name), ".opf") {
			return file.Name, nil
		}
	}
	return "", errors.New("no opf file found")
}

func ParseOPF(r io.Reader) (*OPF, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pkg := &Package{}
	if err := xml.Unmarshal(b, pkg); err != nil {
		return nil, errors.WithStack(err)
	}

	// EPUB 3 refines elements by id, EPUB 2 (and calibre) uses name/content pairs.
	metaProperties := map[string]map[string]string{}
	metaContent := map[string]string{}
	for _, m := range pkg.Metadata.Meta {
		if m.Refines != "" {
			key := strings.TrimPrefix(m.Refines, "#")
			if _, ok := metaProperties[key]; !ok {
				metaProperties[key] = map[string]string{}
			}
			metaProperties[key][m.Property] = strings.TrimSpace(m.Text)
		} else if m.Name != "" && m.Content != "" {
			metaContent[m.Name] = strings.TrimSpace(m.Content)
		}
	}

	opf := &OPF{
		Publisher: strings.TrimSpace(pkg.Metadata.Publisher),
	}

	for _, t := range pkg.Metadata.Title {
		if opf.Title == "" {
			opf.Title = strings.TrimSpace(t.Text)
		}
		if t.ID != "" && metaProperties[t.ID]["title-type"] == "main" {
			opf.Title = strings.TrimSpace(t.Text)
			break
		}
	}

	for _, creator := range pkg.Metadata.Creator {
		role := creator.Role
		if role == "" && creator.ID != "" {
			role = metaProperties[creator.ID]["role"]
		}
		name := strings.TrimSpace(creator.Text)
		if name == "" {
			continue
		}
		if role == "" || role == "aut" || len(pkg.Metadata.Creator) == 1 {
			opf.Authors = append(opf.Authors, name)
		}
	}

	for _, d := range pkg.Metadata.Date {
		if d = strings.TrimSpace(d); d != "" {
			opf.Published = d
			break
		}
	}
	for _, l := range pkg.Metadata.Language {
		if l = strings.TrimSpace(l); l != "" {
			opf.Language = l
			break
		}
	}

	for _, id := range pkg.Metadata.Identifier {
		if ident, ok := parseIdentifier(id.Text, id.Scheme, metaProperties[id.ID]["identifier-type"]); ok {
			opf.Identifiers = append(opf.Identifiers, ident)
		}
	}

	opf.Series = metaContent["calibre:series"]
	index := metaContent["calibre:series_index"]
	if opf.Series == "" {
		for _, m := range pkg.Metadata.Meta {
			if m.Property != "belongs-to-collection" || m.Refines != "" {
				continue
			}
			props := metaProperties[m.ID]
			if ct := props["collection-type"]; ct != "" && ct != "series" {
				continue
			}
			opf.Series = strings.TrimSpace(m.Text)
			index = props["group-position"]
			break
		}
	}
	if index != "" {
		if num, err := strconv.ParseFloat(index, 64); err == nil {
			opf.SeriesIndex = &num
		}
	}

	return opf, nil
}

// parseIdentifier resolves the scheme of an identifier from the opf:scheme
// attribute, an EPUB 3 identifier-type refinement or a urn prefix.
func parseIdentifier(text, scheme, refined string) (Identifier, bool) {
	value := strings.TrimSpace(text)
	if value == "" {
		return Identifier{}, false
	}
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" {
		scheme = strings.ToLower(strings.TrimSpace(refined))
	}

	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "urn:isbn:"):
		scheme, value = "isbn", value[len("urn:isbn:"):]
	case strings.HasPrefix(lower, "urn:uuid:"):
		scheme, value = "uuid", value[len("urn:uuid:"):]
	case strings.HasPrefix(lower, "isbn:"):
		scheme, value = "isbn", value[len("isbn:"):]
	}

	if scheme == "isbn" || scheme == "" || scheme == "15" {
		isbn := identifiers.NormalizeISBN(value)
		if identifiers.IsValidISBN(isbn) {
			return Identifier{Scheme: "isbn", Value: isbn}, true
		}
		if scheme == "isbn" {
			return Identifier{}, false
		}
	}
	if scheme == "" || scheme == "15" {
		scheme = "unknown"
	}
	return Identifier{Scheme: scheme, Value: value}, true
}
