package statistics

import (
	"slices"
	"strconv"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/calculations"
)

// Service wraps the builder with an optional calculation cache so repeated
// analyses of the same price table skip the covariance pass.
type Service struct {
	builder *Builder
	cache   *calculations.Cache
	log     zerolog.Logger
}

// NewService creates a statistics service. cache may be nil, in which case
// every call computes fresh.
func NewService(builder *Builder, cache *calculations.Cache, log zerolog.Logger) *Service {
	return &Service{
		builder: builder,
		cache:   cache,
		log:     log.With().Str("component", "statistics_service").Logger(),
	}
}

// cachedBundle is the serializable form of a Bundle.
type cachedBundle struct {
	Symbols     []string    `msgpack:"symbols"`
	MeanReturns []float64   `msgpack:"mean_returns"`
	Covariance  [][]float64 `msgpack:"covariance"`
}

// BundleFor returns the statistics bundle for a price table, consulting the
// cache when one is configured.
func (s *Service) BundleFor(table *domain.PriceTable) (*Bundle, error) {
	if s.cache == nil {
		return s.builder.Build(table)
	}

	key := bundleCacheKey(table)

	var cached cachedBundle
	hit, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("Statistics cache lookup failed, computing fresh")
	} else if hit && slices.Equal(cached.Symbols, table.Symbols) {
		// The key hashes a sorted symbol set, but the bundle's vectors are
		// aligned to one column order. A same-set, different-order table
		// must recompute rather than inherit misaligned columns.
		s.log.Debug().Str("key", key).Msg("Statistics cache hit")
		return fromCached(&cached), nil
	}

	bundle, err := s.builder.Build(table)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(key, toCached(bundle)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store statistics bundle in cache")
	}
	return bundle, nil
}

func bundleCacheKey(table *domain.PriceTable) string {
	first, last := "", ""
	if table.Rows() > 0 {
		first = table.Dates[0]
		last = table.Dates[table.Rows()-1]
	}
	return calculations.HashKey(table.Symbols, "stats", strconv.Itoa(table.Rows()), first, last)
}

func toCached(b *Bundle) *cachedBundle {
	n := b.NumAssets()
	cov := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = b.Covariance.At(i, j)
		}
		cov[i] = row
	}
	return &cachedBundle{
		Symbols:     b.Symbols,
		MeanReturns: b.MeanReturns,
		Covariance:  cov,
	}
}

func fromCached(c *cachedBundle) *Bundle {
	n := len(c.Symbols)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, c.Covariance[i][j])
		}
	}
	return &Bundle{
		Symbols:     c.Symbols,
		MeanReturns: c.MeanReturns,
		Covariance:  cov,
	}
}
