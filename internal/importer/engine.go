package importer

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/democracyclub/pollingstations-cli/internal/fetcher"
	"github.com/democracyclub/pollingstations-cli/internal/model"
	"github.com/democracyclub/pollingstations-cli/internal/store"
)

// Engine runs one council import end to end: teardown, fetch, transform,
// persist, reconcile, report.
type Engine struct {
	Store     store.Store
	DataPath  string
	TempDir   string
	BatchSize int

	// NoClean skips the post-import postcode reconciliation. Useful when
	// re-running an import against reference data known to be stale.
	NoClean bool
}

// Run executes the import described by imp. Any transform error aborts
// the run before persistence; a council is never left with a partial mix
// of old and new data beyond what teardown already removed.
func (e *Engine) Run(ctx context.Context, imp *Importer) (*Report, error) {
	log := zap.L().With(zap.String("council_id", imp.CouncilID))
	started := time.Now()

	if _, err := e.Store.Council(ctx, imp.CouncilID); err != nil {
		return nil, eris.Wrapf(err, "importer: unknown council %s", imp.CouncilID)
	}

	if err := e.Store.Teardown(ctx, imp.CouncilID); err != nil {
		return nil, eris.Wrap(err, "importer: teardown")
	}
	log.Info("cleared existing data")

	downloads, err := e.prefetch(ctx, imp)
	if err != nil {
		return nil, err
	}

	if imp.PreImport != nil {
		if err := imp.PreImport(ctx, e.Store); err != nil {
			return nil, eris.Wrap(err, "importer: pre-import hook")
		}
	}

	districts := &DistrictSet{}
	stations := &StationSet{}
	addresses := NewAddressSet(e.BatchSize)

	// The same file often backs both stations and addresses; parse once.
	cache := map[string][]fetcher.Record{}

	if imp.Districts != nil {
		if err := e.collectDistricts(ctx, imp, districts, cache, downloads); err != nil {
			return nil, err
		}
	}
	if imp.Addresses != nil {
		if err := e.collectAddresses(ctx, imp, addresses, cache, downloads); err != nil {
			return nil, err
		}
	}
	if imp.Stations != nil {
		if err := e.collectStations(ctx, imp, stations, cache, downloads); err != nil {
			return nil, err
		}
	}
	log.Info("transformed source data",
		zap.Int("districts", districts.Len()),
		zap.Int("addresses", addresses.Len()),
		zap.Int("stations", stations.Len()))

	if _, err := districts.Save(ctx, e.Store); err != nil {
		return nil, eris.Wrap(err, "importer: saving districts")
	}
	if _, err := addresses.Save(ctx, e.Store); err != nil {
		return nil, eris.Wrap(err, "importer: saving addresses")
	}
	if _, err := stations.Save(ctx, e.Store); err != nil {
		return nil, eris.Wrap(err, "importer: saving stations")
	}

	if imp.PostImport != nil {
		if err := imp.PostImport(ctx, e.Store); err != nil {
			return nil, eris.Wrap(err, "importer: post-import hook")
		}
	}

	var cleanup *store.CleanupResult
	if !e.NoClean {
		cleanup, err = e.Store.CleanOverlappingPostcodes(ctx, imp.CouncilID)
		if err != nil {
			return nil, eris.Wrap(err, "importer: postcode cleanup")
		}
	}

	counts, err := e.Store.Counts(ctx, imp.CouncilID)
	if err != nil {
		return nil, eris.Wrap(err, "importer: reading counts")
	}
	report := NewReport(imp.CouncilID, counts, cleanup)

	// A lost quality record should not fail an otherwise good import.
	if err := e.Store.SaveDataQuality(ctx, &model.DataQuality{
		RunID:        report.RunID,
		CouncilID:    report.CouncilID,
		Report:       report.String(),
		NumStations:  report.Stations,
		NumDistricts: report.Districts,
		NumAddresses: report.Addresses,
		CreatedAt:    report.GeneratedAt,
	}); err != nil {
		log.Warn("could not save data quality record", zap.Error(err))
	}

	log.Info("import complete", zap.Duration("elapsed", time.Since(started)))
	return report, nil
}

// prefetch downloads every remote source concurrently before any
// transform runs.
func (e *Engine) prefetch(ctx context.Context, imp *Importer) (map[string]string, error) {
	var urls []string
	for _, f := range imp.fileSpecs() {
		if f.URL != "" {
			urls = append(urls, f.URL)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}
	return fetcher.DownloadAll(ctx, urls, e.TempDir)
}

func (imp *Importer) fileSpecs() []FileSpec {
	var specs []FileSpec
	if imp.Stations != nil {
		specs = append(specs, imp.Stations.File)
	}
	if imp.Districts != nil {
		specs = append(specs, imp.Districts.File)
	}
	if imp.Addresses != nil {
		specs = append(specs, imp.Addresses.File)
	}
	return specs
}

// resolvePath locates a source file: prefetched download, declared
// filename, or discovery by the <council_id>-*<kind>* convention.
func (e *Engine) resolvePath(imp *Importer, f FileSpec, kind string, downloads map[string]string) (string, error) {
	if f.URL != "" {
		return downloads[f.URL], nil
	}
	if f.Filename != "" {
		return filepath.Join(e.DataPath, f.Filename), nil
	}
	matches, err := filepath.Glob(filepath.Join(e.DataPath, imp.CouncilID+"-*"+kind+"*"))
	if err == nil && len(matches) > 0 {
		// Shapefiles come with .dbf and .shx siblings; pick the match
		// whose extension agrees with the declared type.
		if ext := "." + string(f.Type); len(ext) > 1 {
			for _, m := range matches {
				if strings.EqualFold(filepath.Ext(m), ext) {
					return m, nil
				}
			}
		}
		return matches[0], nil
	}
	return fetcher.Discover(e.DataPath, imp.CouncilID)
}

func (e *Engine) loadRecords(ctx context.Context, imp *Importer, f FileSpec, kind string,
	cache map[string][]fetcher.Record, downloads map[string]string) ([]fetcher.Record, error) {

	path, err := e.resolvePath(imp, f, kind, downloads)
	if err != nil {
		return nil, err
	}
	if recs, ok := cache[path]; ok {
		return recs, nil
	}
	recs, err := fetcher.Load(ctx, path, f.Type, f.Options)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: loading %s", path)
	}
	cache[path] = recs
	return recs, nil
}

func (e *Engine) collectDistricts(ctx context.Context, imp *Importer, set *DistrictSet,
	cache map[string][]fetcher.Record, downloads map[string]string) error {

	recs, err := e.loadRecords(ctx, imp, imp.Districts.File, "districts", cache, downloads)
	if err != nil {
		return err
	}
	srid := imp.fileSRID(imp.Districts.File)
	for i := range recs {
		out, err := imp.Districts.Transform(ctx, &recs[i])
		if err != nil {
			return eris.Wrap(err, "importer: district transform")
		}
		if len(out) == 0 {
			zap.L().Info("district record skipped",
				zap.String("council_id", imp.CouncilID),
				zap.Int("row", i+1))
			continue
		}
		for _, d := range out {
			if d.CouncilID == "" {
				d.CouncilID = imp.CouncilID
			}
			if d.Area == nil && recs[i].Geometry != nil {
				area, err := EnsureMultiPolygon(recs[i].Geometry, srid)
				if err != nil {
					return eris.Wrapf(err, "importer: district %q geometry", d.InternalCouncilID)
				}
				d.Area = area
			}
			set.Add(d)
		}
	}
	return nil
}

func (e *Engine) collectAddresses(ctx context.Context, imp *Importer, set *AddressSet,
	cache map[string][]fetcher.Record, downloads map[string]string) error {

	recs, err := e.loadRecords(ctx, imp, imp.Addresses.File, "addresses", cache, downloads)
	if err != nil {
		return err
	}
	for i := range recs {
		out, err := imp.Addresses.Transform(ctx, &recs[i])
		if err != nil {
			return eris.Wrap(err, "importer: address transform")
		}
		if len(out) == 0 {
			zap.L().Info("address record skipped",
				zap.String("council_id", imp.CouncilID),
				zap.Int("row", i+1))
			continue
		}
		for _, a := range out {
			if a.CouncilID == "" {
				a.CouncilID = imp.CouncilID
			}
			set.Add(a)
		}
	}
	return nil
}

func (e *Engine) collectStations(ctx context.Context, imp *Importer, set *StationSet,
	cache map[string][]fetcher.Record, downloads map[string]string) error {

	recs, err := e.loadRecords(ctx, imp, imp.Stations.File, "stations", cache, downloads)
	if err != nil {
		return err
	}
	srid := imp.fileSRID(imp.Stations.File)
	for i := range recs {
		// The hash identifies the source row, not the stations it
		// yields: register it once and let every fanned-out record
		// through, deduping only on full-record identity.
		if imp.Stations.Hash != nil {
			key := imp.Stations.Hash(&recs[i])
			if set.Seen(key) {
				continue
			}
			set.MarkSeen(key)
		}
		out, err := imp.Stations.Transform(ctx, &recs[i])
		if err != nil {
			return eris.Wrap(err, "importer: station transform")
		}
		if len(out) == 0 {
			zap.L().Info("station record skipped",
				zap.String("council_id", imp.CouncilID),
				zap.Int("row", i+1))
			continue
		}
		for _, st := range out {
			if st.CouncilID == "" {
				st.CouncilID = imp.CouncilID
			}
			if st.Location == nil && recs[i].Geometry != nil {
				point, err := FirstPoint(recs[i].Geometry, srid)
				if err != nil {
					return eris.Wrapf(err, "importer: station %q geometry", st.InternalCouncilID)
				}
				st.Location = point
			}
			set.Add("", st)
		}
	}
	return nil
}
