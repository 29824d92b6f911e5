package history

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
)

// CacheState is the outcome of validating a cached price table. There is a
// single transition rule: anything but CacheValid triggers a full refetch
// and wholesale replacement - an invalid cache is never repaired in place.
type CacheState string

const (
	CacheAbsent  CacheState = "absent"
	CacheInvalid CacheState = "invalid"
	CacheValid   CacheState = "valid"
)

// Validator decides whether a cached price table can be trusted for a
// given request.
type Validator struct {
	maxAge time.Duration // 0 disables the staleness check
	log    zerolog.Logger
}

// NewValidator creates a cache validator.
func NewValidator(maxAge time.Duration, log zerolog.Logger) *Validator {
	return &Validator{
		maxAge: maxAge,
		log:    log.With().Str("component", "cache_validator").Logger(),
	}
}

// Validate classifies a cached table against the requested symbol set. A
// reload is accepted only when every requested symbol is present as a
// column, the date index parses and ascends strictly, no cell is missing
// or negative, the row count meets minRows, and the snapshot is fresh.
func (v *Validator) Validate(table *domain.PriceTable, fetchedAt time.Time, requested []string, minRows int) CacheState {
	if table == nil || table.Rows() == 0 || table.Columns() == 0 {
		return CacheAbsent
	}

	for _, symbol := range requested {
		if table.SymbolIndex(symbol) < 0 {
			v.log.Debug().Str("symbol", symbol).Msg("Cache invalid: requested symbol missing")
			return CacheInvalid
		}
	}

	prev := ""
	for _, date := range table.Dates {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			v.log.Debug().Str("date", date).Msg("Cache invalid: unparseable date")
			return CacheInvalid
		}
		if prev != "" && date <= prev {
			v.log.Debug().Str("date", date).Msg("Cache invalid: dates not strictly ascending")
			return CacheInvalid
		}
		prev = date
	}

	for row := range table.Prices {
		if len(table.Prices[row]) != table.Columns() {
			v.log.Debug().
				Int("row", row).
				Int("cells", len(table.Prices[row])).
				Msg("Cache invalid: ragged price row")
			return CacheInvalid
		}
		for col := range table.Prices[row] {
			cell := table.Prices[row][col]
			if math.IsNaN(cell) || cell < 0 {
				v.log.Debug().
					Str("date", table.Dates[row]).
					Str("symbol", table.Symbols[col]).
					Msg("Cache invalid: missing or negative cell")
				return CacheInvalid
			}
		}
	}

	if table.Rows() < minRows {
		v.log.Debug().
			Int("rows", table.Rows()).
			Int("min_rows", minRows).
			Msg("Cache invalid: insufficient history coverage")
		return CacheInvalid
	}

	if v.maxAge > 0 && time.Since(fetchedAt) > v.maxAge {
		v.log.Debug().Time("fetched_at", fetchedAt).Msg("Cache invalid: snapshot too old")
		return CacheInvalid
	}

	return CacheValid
}
