package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/democracyclub/pollingstations-cli/internal/db"
	"github.com/democracyclub/pollingstations-cli/internal/geocoder"
	"github.com/democracyclub/pollingstations-cli/internal/importer"
	"github.com/democracyclub/pollingstations-cli/internal/refdata"
	"github.com/democracyclub/pollingstations-cli/internal/store"
)

// initStore connects to the polling station database.
func initStore(ctx context.Context) (store.Store, func(), error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, nil, eris.New("store database URL is required (POLLINGSTATIONS_STORE_DATABASE_URL)")
	}
	pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "connect store")
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

// initRefdata opens the reference geo-data backend named by config.
func initRefdata(ctx context.Context) (refdata.AddressStore, refdata.CentroidStore, func(), error) {
	switch cfg.Refdata.Driver {
	case "sqlite":
		s, err := refdata.NewSQLite(cfg.Refdata.SQLitePath)
		if err != nil {
			return nil, nil, nil, eris.Wrap(err, "open refdata snapshot")
		}
		return s, s, func() { _ = s.Close() }, nil
	case "postgres":
		url := cfg.Refdata.DatabaseURL
		if url == "" {
			url = cfg.Store.DatabaseURL
		}
		pool, err := db.NewPool(ctx, url)
		if err != nil {
			return nil, nil, nil, eris.Wrap(err, "connect refdata")
		}
		s := refdata.NewPostgresStore(pool)
		return s, s, pool.Close, nil
	default:
		return nil, nil, nil, eris.Errorf("unsupported refdata driver: %s", cfg.Refdata.Driver)
	}
}

// initResolver builds the geocoding waterfall over the configured
// reference data.
func initResolver(ctx context.Context) (*geocoder.Resolver, func(), error) {
	addresses, centroids, closer, err := initRefdata(ctx)
	if err != nil {
		return nil, nil, err
	}
	resolver := geocoder.NewResolver(addresses, centroids,
		geocoder.WithAttemptRate(cfg.Geocoder.AttemptsPerSecond))
	return resolver, closer, nil
}

// pointLocator adapts the resolver for station transforms that need a
// postcode geocoded to a WGS84 point.
func pointLocator(resolver *geocoder.Resolver) importer.PointLocator {
	return func(ctx context.Context, postcode string) (*geom.Point, error) {
		pt, err := resolver.GeocodePointOnly(ctx, postcode)
		if err != nil {
			return nil, err
		}
		p := geom.NewPoint(geom.XY).SetSRID(4326)
		p.MustSetCoords(geom.Coord{pt.Lon, pt.Lat})
		return p, nil
	}
}
