package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"procurement/pkg/contracts/domain"
)

// DefaultThreshold is the alert threshold, in percent, for both checks
const DefaultThreshold = 10.0

var hundred = decimal.NewFromInt(100)

// Thresholds are percentages; a value must be strictly greater to be flagged
type Thresholds struct {
	Deviation float64
	Spike     float64
}

// DefaultThresholds returns 10% for both checks
func DefaultThresholds() Thresholds {
	return Thresholds{Deviation: DefaultThreshold, Spike: DefaultThreshold}
}

// Verdict is the trend and deviation outcome for one row
type Verdict struct {
	Price decimal.Decimal

	Index            decimal.Decimal
	HasIndex         bool
	Deviation        decimal.Decimal
	DeviationFlagged bool

	Previous     decimal.Decimal
	HasPrevious  bool
	Increase     decimal.Decimal
	SpikeFlagged bool
}

// Stable reports whether neither check fired
func (v Verdict) Stable() bool {
	return !v.DeviationFlagged && !v.SpikeFlagged
}

// DeviationTrend renders "<price> (<deviation>% above market index)"
func (v Verdict) DeviationTrend() string {
	return fmt.Sprintf("%s (%s%% above market index)", formatPrice(v.Price), formatPercent(v.Deviation))
}

// SpikeTrend renders "<price> (+<increase>% spike)"
func (v Verdict) SpikeTrend() string {
	return fmt.Sprintf("%s (+%s%% spike)", formatPrice(v.Price), formatPercent(v.Increase))
}

// Analyzer evaluates rows against a fixed target period
type Analyzer struct {
	target      domain.Period
	priceCol    PriceColumn
	indexCol    PriceColumn
	prevCol     PriceColumn
	hasPrevious bool

	deviationThreshold decimal.Decimal
	spikeThreshold     decimal.Decimal
}

// NewAnalyzer anchors the analyzer on the target period. It fails when the
// table has no price or no market-index column for that period.
func NewAnalyzer(reg ColumnRegistry, target domain.Period, th Thresholds) (*Analyzer, error) {
	priceCol, ok := reg.PriceAt(target)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrTargetPriceColumnMissing, target)
	}
	indexCol, ok := reg.IndexAt(target)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrTargetIndexColumnMissing, target)
	}

	a := &Analyzer{
		target:             target,
		priceCol:           priceCol,
		indexCol:           indexCol,
		deviationThreshold: decimal.NewFromFloat(th.Deviation),
		spikeThreshold:     decimal.NewFromFloat(th.Spike),
	}
	if reg.HasTrend() {
		a.prevCol, a.hasPrevious = reg.PreviousPrice(target)
	}
	return a, nil
}

// PriceColumn is the column holding target-period prices
func (a *Analyzer) PriceColumn() PriceColumn {
	return a.priceCol
}

// Evaluate computes the verdict for a row. It returns false when the row has
// no parseable target-period price.
func (a *Analyzer) Evaluate(row *Row) (Verdict, bool) {
	price, ok := row.Price(a.priceCol)
	if !ok {
		return Verdict{}, false
	}

	v := Verdict{Price: price}

	if index, ok := row.Price(a.indexCol); ok && index.IsPositive() {
		v.Index, v.HasIndex = index, true
		if price.GreaterThan(index) {
			v.Deviation = percentChange(index, price)
			v.DeviationFlagged = v.Deviation.GreaterThan(a.deviationThreshold)
		}
	}

	if a.hasPrevious {
		if prev, ok := row.Price(a.prevCol); ok && prev.IsPositive() {
			v.Previous, v.HasPrevious = prev, true
			if price.GreaterThan(prev) {
				v.Increase = percentChange(prev, price)
				v.SpikeFlagged = v.Increase.GreaterThan(a.spikeThreshold)
			}
		}
	}

	return v, true
}

// percentChange returns (to - from) / from * 100, multiplying first so that
// round values stay exact.
func percentChange(from, to decimal.Decimal) decimal.Decimal {
	return to.Sub(from).Mul(hundred).Div(from)
}
