package fetcher

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// loadXML reads an ad-hoc row-oriented XML export: every element named
// opts.RecordTag (default "row") becomes a record, its child elements
// become fields keyed by tag name. Some exports nest the record tag
// inside a container element of the same name; containers are unwrapped.
func loadXML(ctx context.Context, path string, opts Options) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xml: open %s", path)
	}
	defer f.Close()

	recordTag := opts.RecordTag
	if recordTag == "" {
		recordTag = "row"
	}

	decoder := xml.NewDecoder(f)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var records []Record
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "xml: context cancelled")
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "xml: read token in %s", path)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != recordTag {
			continue
		}

		recs, err := decodeRow(decoder, recordTag)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: decode record in %s", path)
		}
		records = append(records, recs...)
	}

	return records, nil
}

// decodeRow consumes one record element (opening tag already read) and
// returns the records inside it: the element's own fields, or — when it
// only wraps nested record elements — the nested records.
func decodeRow(decoder *xml.Decoder, recordTag string) ([]Record, error) {
	fields := make(map[string]string)
	var nested []Record

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == recordTag {
				inner, err := decodeRow(decoder, recordTag)
				if err != nil {
					return nil, err
				}
				nested = append(nested, inner...)
				continue
			}

			val, err := decodeLeaf(decoder)
			if err != nil {
				return nil, err
			}
			fields[t.Name.Local] = val

		case xml.EndElement:
			if len(nested) > 0 {
				return nested, nil
			}
			if len(fields) == 0 {
				return nil, nil
			}
			return []Record{NewRecord(fields, nil)}, nil
		}
	}
}

// decodeLeaf reads a field element to its end, collecting character data.
func decodeLeaf(decoder *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 0

	for {
		tok, err := decoder.Token()
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(b.String()), nil
			}
			depth--
		}
	}
}
