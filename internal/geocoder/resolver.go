package geocoder

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/democracyclub/pollingstations-cli/internal/model"
	"github.com/democracyclub/pollingstations-cli/internal/refdata"
)

// CouncilFinder looks up councils for a geocode result. Implemented by
// the polling station store; declared here so the resolver does not
// depend on the persistence package. Implementations report an absent
// council with model.ErrNoCouncil.
type CouncilFinder interface {
	Council(ctx context.Context, gss string) (*model.Council, error)
	CouncilIn(ctx context.Context, gssCodes []string) (*model.Council, error)
	CouncilForPoint(ctx context.Context, lon, lat float64) (*model.Council, error)
}

// Resolver tries geocoding sources in strict priority order. A miss on
// one source falls through to the next after a rate-limited pause; a
// genuine ambiguity (ErrMultipleJurisdictions) propagates immediately
// because no fallback source can resolve it more precisely.
type Resolver struct {
	geocoders []Geocoder
	limiter   *rate.Limiter
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithAttemptRate bounds how quickly the resolver moves between sources
// after a miss. Zero or negative disables the pause.
func WithAttemptRate(attemptsPerSecond float64) Option {
	return func(r *Resolver) {
		if attemptsPerSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(attemptsPerSecond), 1)
		}
	}
}

// NewResolver creates a Resolver over the standard source order:
// AddressBase first, ONSPD second.
func NewResolver(addresses refdata.AddressStore, centroids refdata.CentroidStore, opts ...Option) *Resolver {
	r := &Resolver{
		geocoders: []Geocoder{
			NewAddressBaseGeocoder(addresses),
			NewOnspdGeocoder(centroids),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Geocode resolves a postcode to a point plus jurisdiction codes.
func (r *Resolver) Geocode(ctx context.Context, postcode string) (*Result, error) {
	postcode = model.NormalizePostcode(postcode)

	for i, g := range r.geocoders {
		result, err := g.Geocode(ctx, postcode)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrMultipleJurisdictions) {
			return nil, err
		}

		zap.L().Debug("geocoder miss, trying next source",
			zap.String("source", g.Name()),
			zap.String("postcode", postcode),
			zap.Error(err),
		)

		if err := r.pause(ctx, i); err != nil {
			return nil, err
		}
	}

	return nil, ErrUnresolvable
}

// GeocodePointOnly resolves a postcode to a bare point. Same source
// order and fallback rules as Geocode, without the jurisdiction lookup.
func (r *Resolver) GeocodePointOnly(ctx context.Context, postcode string) (*Point, error) {
	postcode = model.NormalizePostcode(postcode)

	for i, g := range r.geocoders {
		point, err := g.GeocodePointOnly(ctx, postcode)
		if err == nil {
			return point, nil
		}

		zap.L().Debug("geocoder miss, trying next source",
			zap.String("source", g.Name()),
			zap.String("postcode", postcode),
			zap.Error(err),
		)

		if err := r.pause(ctx, i); err != nil {
			return nil, err
		}
	}

	return nil, ErrUnresolvable
}

// pause waits between attempts so fallback sources are not hammered.
// Skipped after the final source.
func (r *Resolver) pause(ctx context.Context, attempt int) error {
	if r.limiter == nil || attempt == len(r.geocoders)-1 {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// GetCouncil finds the council for a geocode result: exact GSS match
// first, then membership of the full code list, then a spatial
// point-in-polygon lookup as the last resort. Only a not-found moves on
// to the next strategy; a failed lookup propagates.
func GetCouncil(ctx context.Context, finder CouncilFinder, result *Result) (*model.Council, error) {
	if result.CouncilGSS != "" {
		council, err := finder.Council(ctx, result.CouncilGSS)
		if err == nil {
			return council, nil
		}
		if !errors.Is(err, model.ErrNoCouncil) {
			return nil, err
		}
	}

	if len(result.GSSCodes) > 0 {
		council, err := finder.CouncilIn(ctx, result.GSSCodes)
		if err == nil {
			return council, nil
		}
		if !errors.Is(err, model.ErrNoCouncil) {
			return nil, err
		}
	}

	return finder.CouncilForPoint(ctx, result.Lon, result.Lat)
}
