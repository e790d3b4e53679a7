package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"procurement/pkg/contracts/domain"
)

// SupplierLookup discovers external suppliers. Implementations apply their
// own timeout and rate limit and report any failure as no result.
type SupplierLookup interface {
	Search(ctx context.Context, query string) (domain.SearchResult, bool)
}

// Options configures an Engine
type Options struct {
	Target     domain.Period
	Thresholds Thresholds
	// MaxLookups caps outsourcing lookups per run; 0 means no cap.
	MaxLookups int
}

// Engine runs the opportunity pipeline over a fetched table
type Engine struct {
	opts   Options
	lookup SupplierLookup
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithLookup sets the outsourcing collaborator. Without one no Outsourcing
// opportunities are produced.
func WithLookup(l SupplierLookup) EngineOption {
	return func(e *Engine) { e.lookup = l }
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the source of result timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine for a fixed target period
func NewEngine(opts Options, options ...EngineOption) *Engine {
	e := &Engine{
		opts:   opts,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Target returns the period the engine is anchored on
func (e *Engine) Target() domain.Period {
	return e.opts.Target
}

// flagged pairs a row with its verdict
type flagged struct {
	row     *Row
	verdict Verdict
}

// Run analyzes the table. A missing target-period column yields a failed
// result together with an error wrapping ErrConfiguration; every other
// anomaly only affects the row it occurs in.
func (e *Engine) Run(ctx context.Context, table *domain.Table, mode domain.AnalysisMode) (*domain.AnalysisResult, error) {
	if mode == "" {
		mode = domain.AnalysisModeFull
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	result := &domain.AnalysisResult{
		RunID:         e.newID(),
		Mode:          mode,
		TargetPeriod:  e.opts.Target,
		Opportunities: []domain.Opportunity{},
		Timestamp:     e.now(),
	}

	rows, stats := Ingest(table)
	registry := ClassifyColumns(table.Headers)

	e.logger.DebugContext(ctx, "table ingested",
		"run_id", result.RunID,
		"rows_total", stats.Total,
		"rows_accepted", stats.Accepted,
		"rows_missing_ids", stats.MissingIDs,
		"price_columns", len(registry.Prices),
		"index_columns", len(registry.Indices),
	)

	analyzer, err := NewAnalyzer(registry, e.opts.Target, e.opts.Thresholds)
	if err != nil {
		result.Status = domain.AnalysisStatusFailed
		result.Summary = fmt.Sprintf("Analysis failed: %v", err)
		e.logger.WarnContext(ctx, "analysis not anchored",
			"run_id", result.RunID,
			"target_period", e.opts.Target.String(),
			"error", err,
		)
		return result, err
	}
	if !registry.HasTrend() {
		e.logger.InfoContext(ctx, "fewer than two price columns, month-over-month check disabled",
			"run_id", result.RunID)
	}

	materials := NewMaterialIndex(rows)
	deviations, spikes := e.flag(analyzer, rows)

	var opps []domain.Opportunity
	if mode != domain.AnalysisModeOutsourcing {
		opps = append(opps, renegotiations(deviations)...)
		opps = append(opps, e.insourcing(analyzer, materials, spikes)...)
	}
	if mode != domain.AnalysisModeInsourcing {
		opps = append(opps, e.outsourcing(ctx, deviations)...)
	}

	result.Status = domain.AnalysisStatusCompleted
	result.Opportunities = append(result.Opportunities, opps...)
	result.Counts = countOpportunities(opps)
	result.TotalPotentialSavings = totalSavings(opps)
	result.Summary = summarize(e.opts.Target, result.Counts, result.TotalPotentialSavings)

	e.logger.InfoContext(ctx, "analysis completed",
		"run_id", result.RunID,
		"mode", string(mode),
		"target_period", e.opts.Target.String(),
		"rows", len(rows),
		"deviation_flags", len(deviations),
		"spike_flags", len(spikes),
		"opportunities", result.Counts.Total,
	)
	return result, nil
}

// flag evaluates every row once and splits the flagged ones by check
func (e *Engine) flag(a *Analyzer, rows []Row) (deviations, spikes []flagged) {
	for i := range rows {
		v, ok := a.Evaluate(&rows[i])
		if !ok {
			continue
		}
		if v.DeviationFlagged {
			deviations = append(deviations, flagged{row: &rows[i], verdict: v})
		}
		if v.SpikeFlagged {
			spikes = append(spikes, flagged{row: &rows[i], verdict: v})
		}
	}
	return deviations, spikes
}

func renegotiations(deviations []flagged) []domain.Opportunity {
	opps := make([]domain.Opportunity, 0, len(deviations))
	for _, f := range deviations {
		v := f.verdict
		opps = append(opps, domain.Opportunity{
			PartNumber:      f.row.PartNumber,
			CurrentSupplier: f.row.Supplier,
			PriceAndTrend:   v.DeviationTrend(),
			Type:            domain.OpportunityRenegotiation,
			Description: fmt.Sprintf(
				"Price %s is %s%% above the market index of %s. Recommended action: renegotiate with %s towards the index price.",
				formatPrice(v.Price), formatPercent(v.Deviation), formatPrice(v.Index), f.row.Supplier),
			Material:         f.row.Material,
			Location:         f.row.Location,
			CurrentPrice:     floatPtr(v.Price),
			PotentialSavings: floatPtr(v.Price.Sub(v.Index)),
		})
	}
	return opps
}

func (e *Engine) insourcing(a *Analyzer, materials *MaterialIndex, spikes []flagged) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, f := range spikes {
		alt, altPrice, ok := cheapestAlternative(a, materials, f.row)
		if !ok || !altPrice.LessThan(f.verdict.Price) {
			continue
		}

		price := f.verdict.Price
		savingsPct := price.Sub(altPrice).Mul(hundred).Div(price)
		opps = append(opps, domain.Opportunity{
			PartNumber:      f.row.PartNumber,
			CurrentSupplier: f.row.Supplier,
			PriceAndTrend:   f.verdict.SpikeTrend(),
			Type:            domain.OpportunityInsourcing,
			Description: fmt.Sprintf(
				"Supplier %s already supplies %s part %s at %s, %s%% cheaper. Recommended action: move volume to %s.",
				alt.Supplier, f.row.Material, alt.PartNumber, formatPrice(altPrice), formatPercent(savingsPct), alt.Supplier),
			Material:              f.row.Material,
			Location:              f.row.Location,
			CurrentPrice:          floatPtr(price),
			AlternativeSupplier:   alt.Supplier,
			AlternativePartNumber: alt.PartNumber,
			AlternativePrice:      floatPtr(altPrice),
			PotentialSavings:      floatPtr(price.Sub(altPrice)),
		})
	}
	return opps
}

// cheapestAlternative picks the lowest-priced row of the same material from
// another supplier. Ties keep the earliest row.
func cheapestAlternative(a *Analyzer, materials *MaterialIndex, row *Row) (*Row, decimal.Decimal, bool) {
	supplier := normalizeSupplier(row.Supplier)

	var (
		best      *Row
		bestPrice decimal.Decimal
	)
	for _, candidate := range materials.Group(row.Material) {
		if candidate == row || normalizeSupplier(candidate.Supplier) == supplier {
			continue
		}
		price, ok := candidate.Price(a.priceCol)
		if !ok {
			continue
		}
		if best == nil || price.LessThan(bestPrice) {
			best, bestPrice = candidate, price
		}
	}
	return best, bestPrice, best != nil
}

func normalizeSupplier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (e *Engine) outsourcing(ctx context.Context, deviations []flagged) []domain.Opportunity {
	if e.lookup == nil {
		return nil
	}

	var (
		opps    []domain.Opportunity
		seen    = make(map[string]struct{})
		lookups int
	)
	for _, f := range deviations {
		key := strings.ToLower(strings.TrimSpace(f.row.Name())) + "|" + NormalizeMaterial(f.row.Material)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if e.opts.MaxLookups > 0 && lookups >= e.opts.MaxLookups {
			e.logger.InfoContext(ctx, "outsourcing lookup cap reached",
				"max_lookups", e.opts.MaxLookups)
			break
		}
		if ctx.Err() != nil {
			e.logger.WarnContext(ctx, "outsourcing lookups stopped", "error", ctx.Err())
			break
		}

		lookups++
		res, ok := e.lookup.Search(ctx, lookupQuery(f.row))
		if !ok {
			continue
		}

		opps = append(opps, domain.Opportunity{
			PartNumber:      f.row.PartNumber,
			CurrentSupplier: f.row.Supplier,
			PriceAndTrend:   f.verdict.DeviationTrend(),
			Type:            domain.OpportunityOutsourcing,
			Description: fmt.Sprintf(
				"Potential external supplier found: %s (source: %s). Recommended action: request a quote and benchmark it against the current price.",
				res.Title, res.URL),
			Material:            f.row.Material,
			Location:            f.row.Location,
			CurrentPrice:        floatPtr(f.verdict.Price),
			AlternativeSupplier: res.Title,
			SourceURL:           res.URL,
		})
	}
	return opps
}

// lookupQuery builds "<name> <material> supplier"
func lookupQuery(row *Row) string {
	parts := []string{row.Name()}
	if row.Material != "" {
		parts = append(parts, row.Material)
	}
	return strings.Join(append(parts, "supplier"), " ")
}

func countOpportunities(opps []domain.Opportunity) domain.OpportunityCounts {
	c := domain.OpportunityCounts{Total: len(opps)}
	for _, o := range opps {
		switch o.Type {
		case domain.OpportunityRenegotiation:
			c.Renegotiation++
		case domain.OpportunityInsourcing:
			c.Insourcing++
		case domain.OpportunityOutsourcing:
			c.Outsourcing++
		}
	}
	return c
}

// totalSavings sums the per-unit savings of every opportunity that has one
func totalSavings(opps []domain.Opportunity) float64 {
	total := decimal.Zero
	for _, o := range opps {
		if o.PotentialSavings != nil {
			total = total.Add(decimal.NewFromFloat(*o.PotentialSavings))
		}
	}
	return toFloat(total)
}

func summarize(target domain.Period, c domain.OpportunityCounts, savings float64) string {
	return fmt.Sprintf(
		"Found %d opportunities for %s: %d renegotiation, %d insourcing, %d outsourcing. Total potential savings: €%.2f per unit.",
		c.Total, target, c.Renegotiation, c.Insourcing, c.Outsourcing, savings)
}
