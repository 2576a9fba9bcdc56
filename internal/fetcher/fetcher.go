// Package fetcher turns heterogeneous council data exports (delimited
// text, shapefile, GeoJSON, KML, ad-hoc XML, XLSX) into a uniform record
// stream, and resolves where a council's raw files live.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/sync/errgroup"

	"github.com/democracyclub/pollingstations-cli/internal/resilience"
)

// Type identifies a supported input encoding.
type Type string

const (
	TypeCSV     Type = "csv"
	TypeShp     Type = "shp"
	TypeGeoJSON Type = "geojson"
	TypeKML     Type = "kml"
	TypeXML     Type = "xml"
	TypeXLSX    Type = "xlsx"
)

// Options configures format-specific parsing.
type Options struct {
	Delimiter rune   // delimited text; default ','
	Encoding  string // character encoding name (htmlindex); default utf-8
	RecordTag string // ad-hoc XML: element name of one record; default "row"
}

// Record is one source row: named fields plus optional geometry.
// Geometry carries no SRID; the importer tags it with the council's
// declared one.
type Record struct {
	fields   map[string]string
	Geometry geom.T
}

// NewRecord builds a Record from raw field names and values.
func NewRecord(fields map[string]string, g geom.T) Record {
	normalized := make(map[string]string, len(fields))
	for k, v := range fields {
		normalized[NormalizeFieldName(k)] = v
	}
	return Record{fields: normalized, Geometry: g}
}

// Field returns the value of a named field, trimmed. Lookup is
// case-insensitive and ignores spaces in the source header.
func (r Record) Field(name string) string {
	return strings.TrimSpace(r.fields[NormalizeFieldName(name)])
}

// Has reports whether the record has a non-empty value for the field.
func (r Record) Has(name string) bool {
	return r.Field(name) != ""
}

// NormalizeFieldName maps a source header to its canonical lookup key:
// lowercase with spaces removed, underscores kept.
func NormalizeFieldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Load parses the file at path into records according to its type.
func Load(ctx context.Context, path string, filetype Type, opts Options) ([]Record, error) {
	switch filetype {
	case TypeCSV:
		return loadCSV(ctx, path, opts)
	case TypeShp:
		return loadShp(ctx, path)
	case TypeGeoJSON:
		return loadGeoJSON(ctx, path)
	case TypeKML:
		return loadKML(ctx, path)
	case TypeXML:
		return loadXML(ctx, path, opts)
	case TypeXLSX:
		return loadXLSX(ctx, path)
	default:
		return nil, eris.Errorf("fetcher: unsupported filetype %q", filetype)
	}
}

// Discover resolves the local data directory for a council by the
// <council_id>-* pattern under the base path.
func Discover(basePath, councilID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(basePath, councilID+"-*"))
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: glob for %s", councilID)
	}
	if len(matches) == 0 {
		return "", eris.Errorf("fetcher: no data directory matching %s-* under %s", councilID, basePath)
	}
	return matches[0], nil
}

// Download fetches a URL to a file under tempDir and returns its path.
// Transient HTTP failures are retried; council servers drop connections
// often enough that one attempt is not enough.
func Download(ctx context.Context, url, tempDir string) (string, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create temp dir")
	}

	return resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		return download(ctx, url, tempDir)
	})
}

func download(ctx context.Context, url, tempDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: build request for %s", url)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("fetcher: GET %s: status %d", url, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	out, err := os.CreateTemp(tempDir, "download-*"+filepath.Ext(url))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create temp file")
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(out.Name())
		return "", eris.Wrapf(err, "fetcher: write %s", out.Name())
	}
	return out.Name(), nil
}

// DownloadAll fetches several URLs concurrently and returns local paths
// keyed by URL. Used to prefetch a council's stations and districts
// files in one go.
func DownloadAll(ctx context.Context, urls []string, tempDir string) (map[string]string, error) {
	paths := make([]string, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			p, err := Download(gCtx, url, tempDir)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(urls))
	for i, url := range urls {
		out[url] = paths[i]
	}
	return out, nil
}

// headerRecords pairs a header row with data rows into Records.
func headerRecords(header []string, rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				fields[name] = row[i]
			}
		}
		records = append(records, NewRecord(fields, nil))
	}
	return records
}
