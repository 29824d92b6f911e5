package history

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/frontier/internal/domain"
)

func validTable() *domain.PriceTable {
	return &domain.PriceTable{
		Dates:   []string{"2024-01-02", "2024-01-03", "2024-01-04"},
		Symbols: []string{"AAPL", "MSFT"},
		Prices: [][]float64{
			{185.5, 370.1},
			{186.2, 372.8},
			{184.9, 371.0},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())
	state := v.Validate(validTable(), time.Now(), []string{"AAPL", "MSFT"}, 3)
	assert.Equal(t, CacheValid, state)
}

func TestValidateAbsent(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())

	assert.Equal(t, CacheAbsent, v.Validate(nil, time.Time{}, []string{"AAPL"}, 1))
	assert.Equal(t, CacheAbsent, v.Validate(&domain.PriceTable{}, time.Now(), []string{"AAPL"}, 1))
}

func TestValidateMissingSymbol(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())
	state := v.Validate(validTable(), time.Now(), []string{"AAPL", "GLD"}, 3)
	assert.Equal(t, CacheInvalid, state)
}

func TestValidateExtraCachedSymbolIsFine(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())
	state := v.Validate(validTable(), time.Now(), []string{"AAPL"}, 3)
	assert.Equal(t, CacheValid, state, "a superset cache still serves the request")
}

func TestValidateBadDates(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())

	unparseable := validTable()
	unparseable.Dates[1] = "not-a-date"
	assert.Equal(t, CacheInvalid, v.Validate(unparseable, time.Now(), []string{"AAPL"}, 3))

	descending := validTable()
	descending.Dates = []string{"2024-01-04", "2024-01-03", "2024-01-02"}
	assert.Equal(t, CacheInvalid, v.Validate(descending, time.Now(), []string{"AAPL"}, 3))

	duplicated := validTable()
	duplicated.Dates = []string{"2024-01-02", "2024-01-02", "2024-01-04"}
	assert.Equal(t, CacheInvalid, v.Validate(duplicated, time.Now(), []string{"AAPL"}, 3))
}

func TestValidateBadCells(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())

	missing := validTable()
	missing.Prices[1][0] = math.NaN()
	assert.Equal(t, CacheInvalid, v.Validate(missing, time.Now(), []string{"AAPL"}, 3))

	negative := validTable()
	negative.Prices[2][1] = -5
	assert.Equal(t, CacheInvalid, v.Validate(negative, time.Now(), []string{"AAPL"}, 3))

	ragged := validTable()
	ragged.Prices[1] = ragged.Prices[1][:1]
	assert.Equal(t, CacheInvalid, v.Validate(ragged, time.Now(), []string{"AAPL"}, 3))
}

func TestValidateInsufficientRows(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())
	state := v.Validate(validTable(), time.Now(), []string{"AAPL"}, 100)
	assert.Equal(t, CacheInvalid, state)
}

func TestValidateStaleness(t *testing.T) {
	v := NewValidator(24*time.Hour, zerolog.Nop())
	old := time.Now().Add(-48 * time.Hour)
	assert.Equal(t, CacheInvalid, v.Validate(validTable(), old, []string{"AAPL"}, 3))

	unbounded := NewValidator(0, zerolog.Nop())
	assert.Equal(t, CacheValid, unbounded.Validate(validTable(), old, []string{"AAPL"}, 3),
		"zero max age disables the staleness check")
}
