package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"procurement/pkg/contracts/domain"
)

// ColumnRole tells what a period column holds
type ColumnRole string

const (
	RolePrice       ColumnRole = "price"
	RoleMarketIndex ColumnRole = "market_index"
)

// PriceColumn is a header tagged with its role and calendar period
type PriceColumn struct {
	Name   string        `json:"name"`
	Role   ColumnRole    `json:"role"`
	Period domain.Period `json:"period"`
	order  int
}

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

var (
	priceColumnPattern = regexp.MustCompile(`(?i)^(?:price)?[\s_-]*` + monthPattern + `[\s_-]*(\d{4})$`)
	indexColumnPattern = regexp.MustCompile(`(?i)^(?:price)?[\s_-]*(?:evo)?[\s_-]*index[\s_-]*` + monthPattern + `[\s_-]*(\d{4})$`)
)

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ColumnRegistry holds the classified period columns of a table, each role
// sorted ascending by period. Columns sharing a period keep header order.
type ColumnRegistry struct {
	Prices  []PriceColumn `json:"prices"`
	Indices []PriceColumn `json:"indices"`
}

// ClassifyColumns parses every header once. Headers that match neither
// pattern are ignored.
func ClassifyColumns(headers []string) ColumnRegistry {
	var reg ColumnRegistry

	for i, header := range headers {
		name := strings.TrimSpace(header)
		if col, ok := parseColumn(name, indexColumnPattern, RoleMarketIndex); ok {
			col.Name, col.order = header, i
			reg.Indices = append(reg.Indices, col)
			continue
		}
		if col, ok := parseColumn(name, priceColumnPattern, RolePrice); ok {
			col.Name, col.order = header, i
			reg.Prices = append(reg.Prices, col)
		}
	}

	sortColumns(reg.Prices)
	sortColumns(reg.Indices)
	return reg
}

func parseColumn(name string, pattern *regexp.Regexp, role ColumnRole) (PriceColumn, bool) {
	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return PriceColumn{}, false
	}

	month, ok := monthNumbers[strings.ToLower(m[1])[:3]]
	if !ok {
		return PriceColumn{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return PriceColumn{}, false
	}

	return PriceColumn{Role: role, Period: domain.Period{Year: year, Month: month}}, true
}

func sortColumns(cols []PriceColumn) {
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Period != cols[j].Period {
			return cols[i].Period.Before(cols[j].Period)
		}
		return cols[i].order < cols[j].order
	})
}

// PriceAt returns the first price column for the period
func (r ColumnRegistry) PriceAt(p domain.Period) (PriceColumn, bool) {
	return columnAt(r.Prices, p)
}

// IndexAt returns the first market-index column for the period
func (r ColumnRegistry) IndexAt(p domain.Period) (PriceColumn, bool) {
	return columnAt(r.Indices, p)
}

// PreviousPrice returns the price column for the latest period strictly
// before p.
func (r ColumnRegistry) PreviousPrice(p domain.Period) (PriceColumn, bool) {
	var (
		prev  PriceColumn
		found bool
	)
	for _, col := range r.Prices {
		if !col.Period.Before(p) {
			break
		}
		if !found || prev.Period != col.Period {
			prev, found = col, true
		}
	}
	return prev, found
}

// HasTrend reports whether month-over-month comparison is possible at all
func (r ColumnRegistry) HasTrend() bool {
	return len(r.Prices) >= 2
}

func columnAt(cols []PriceColumn, p domain.Period) (PriceColumn, bool) {
	for _, col := range cols {
		if col.Period == p {
			return col, true
		}
	}
	return PriceColumn{}, false
}
