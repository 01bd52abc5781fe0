// Package pricing turns a trip distance into a price using the fare table,
// or the flat pricing config while the table is empty.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/fares"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceRange        Source = "range"
	SourceTopTierClamp Source = "top_tier_clamp"
	SourceFlatConfig   Source = "flat_config"
)

var ErrInvalidConfig = errors.New("base fare and per km rate must not be negative")

// NoApplicableRangeError means the fare table is configured but leaves the
// distance uncovered, either below its lowest tier or inside a gap.
type NoApplicableRangeError struct {
	DistanceKm  float64
	LowestMinKm float64
}

func (e *NoApplicableRangeError) Error() string {
	if e.DistanceKm < e.LowestMinKm {
		return fmt.Sprintf("no fare range covers %g km: lowest tier starts at %g km", e.DistanceKm, e.LowestMinKm)
	}
	return fmt.Sprintf("no fare range covers %g km: distance falls in a gap of the fare table", e.DistanceKm)
}

type Quote struct {
	Amount  decimal.Decimal `json:"amount"`
	Source  Source          `json:"source"`
	RangeID string          `json:"rangeId,omitempty"`
}

type RangeLister interface {
	List(ctx context.Context) ([]models.FareRange, error)
}

type ConfigStore interface {
	// GetOrCreate returns the singleton config, inserting defaults if it is absent.
	GetOrCreate(ctx context.Context, defaults models.PricingConfig) (*models.PricingConfig, error)
	Update(ctx context.Context, cfg models.PricingConfig) (*models.PricingConfig, error)
}

// Defaults seed the pricing config the first time it is read.
type Defaults struct {
	BaseFare decimal.Decimal
	PerKm    decimal.Decimal
}

type Engine struct {
	ranges   RangeLister
	configs  ConfigStore
	defaults Defaults
	now      func() time.Time
}

func NewEngine(ranges RangeLister, configs ConfigStore, defaults Defaults) *Engine {
	return &Engine{ranges: ranges, configs: configs, defaults: defaults, now: time.Now}
}

// PriceFor prices a trip of distanceKm. Callers reject non-positive
// distances before calling.
func (e *Engine) PriceFor(ctx context.Context, distanceKm float64) (Quote, error) {
	ranges, err := e.ranges.List(ctx)
	if err != nil {
		return Quote{}, err
	}
	if len(ranges) == 0 {
		cfg, err := e.Config(ctx)
		if err != nil {
			return Quote{}, err
		}
		return Flat(*cfg, distanceKm), nil
	}
	return Resolve(ranges, distanceKm)
}

// Resolve prices distanceKm against a non-empty fare table. The first range
// by ascending MinKm containing the distance wins; distances beyond the top
// tier are charged at the rate of the range with the largest MaxKm.
func Resolve(ranges []models.FareRange, distanceKm float64) (Quote, error) {
	sorted := slices.Clone(ranges)
	fares.Sort(sorted)

	dist := decimal.NewFromFloat(distanceKm)
	top := sorted[0]
	for _, r := range sorted {
		if r.MinKm <= distanceKm && distanceKm <= r.MaxKm {
			return Quote{Amount: dist.Mul(r.RatePerKm).Round(2), Source: SourceRange, RangeID: r.ID}, nil
		}
		if r.MaxKm > top.MaxKm {
			top = r
		}
	}
	if distanceKm > top.MaxKm {
		return Quote{Amount: dist.Mul(top.RatePerKm).Round(2), Source: SourceTopTierClamp, RangeID: top.ID}, nil
	}
	return Quote{}, &NoApplicableRangeError{DistanceKm: distanceKm, LowestMinKm: sorted[0].MinKm}
}

// Flat applies base_fare + distance * per_km.
func Flat(cfg models.PricingConfig, distanceKm float64) Quote {
	amount := cfg.BaseFare.Add(decimal.NewFromFloat(distanceKm).Mul(cfg.PerKm)).Round(2)
	return Quote{Amount: amount, Source: SourceFlatConfig}
}

// Config returns the flat pricing config, creating it from defaults on first use.
func (e *Engine) Config(ctx context.Context) (*models.PricingConfig, error) {
	return e.configs.GetOrCreate(ctx, models.PricingConfig{
		ID:        models.PricingConfigID,
		BaseFare:  e.defaults.BaseFare,
		PerKm:     e.defaults.PerKm,
		UpdatedAt: e.now().UTC(),
	})
}

func (e *Engine) UpdateConfig(ctx context.Context, baseFare, perKm decimal.Decimal, updatedBy string) (*models.PricingConfig, error) {
	if baseFare.IsNegative() || perKm.IsNegative() {
		return nil, ErrInvalidConfig
	}
	return e.configs.Update(ctx, models.PricingConfig{
		ID:        models.PricingConfigID,
		BaseFare:  baseFare.Round(2),
		PerKm:     perKm.Round(2),
		UpdatedAt: e.now().UTC(),
		UpdatedBy: updatedBy,
	})
}
