package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/pkg/contracts/domain"
)

func names(cols []PriceColumn) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Name)
	}
	return out
}

func TestClassifyColumns(t *testing.T) {
	reg := ClassifyColumns([]string{"priceJanuary2025", "priceFebruary2025", "Priceevoindexjanuary2025", "notes"})

	assert.Equal(t, []string{"priceJanuary2025", "priceFebruary2025"}, names(reg.Prices))
	assert.Equal(t, []string{"Priceevoindexjanuary2025"}, names(reg.Indices))
	assert.Equal(t, domain.Period{Year: 2025, Month: 1}, reg.Indices[0].Period)
	assert.Equal(t, RoleMarketIndex, reg.Indices[0].Role)
}

func TestClassifyColumnsPatterns(t *testing.T) {
	tests := []struct {
		header string
		role   ColumnRole
		period domain.Period
		match  bool
	}{
		{header: "priceMarch2024", role: RolePrice, period: domain.Period{Year: 2024, Month: 3}, match: true},
		{header: "PRICE_DEC_2023", role: RolePrice, period: domain.Period{Year: 2023, Month: 12}, match: true},
		{header: "price sept 2025", role: RolePrice, period: domain.Period{Year: 2025, Month: 9}, match: true},
		{header: "May2025", role: RolePrice, period: domain.Period{Year: 2025, Month: 5}, match: true},
		{header: " priceJune2025 ", role: RolePrice, period: domain.Period{Year: 2025, Month: 6}, match: true},
		{header: "Price evo index Jun 2025", role: RoleMarketIndex, period: domain.Period{Year: 2025, Month: 6}, match: true},
		{header: "index-april-2025", role: RoleMarketIndex, period: domain.Period{Year: 2025, Month: 4}, match: true},
		{header: "priceindexfeb2025", role: RoleMarketIndex, period: domain.Period{Year: 2025, Month: 2}, match: true},
		{header: "priceJanuary2025 old"},
		{header: "priceJanuary25"},
		{header: "priceJanuar2025"},
		{header: "costJanuary2025"},
		{header: "Supplier"},
		{header: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			reg := ClassifyColumns([]string{tt.header})
			all := append(append([]PriceColumn{}, reg.Prices...), reg.Indices...)
			if !tt.match {
				assert.Empty(t, all)
				return
			}
			require.Len(t, all, 1)
			assert.Equal(t, tt.role, all[0].Role)
			assert.Equal(t, tt.period, all[0].Period)
			assert.Equal(t, tt.header, all[0].Name)
		})
	}
}

func TestClassifyColumnsOrdering(t *testing.T) {
	reg := ClassifyColumns([]string{
		"priceMarch2025", "priceDecember2024", "priceJan2025", "priceJanuary2025", "indexFeb2025", "indexJan2025",
	})

	assert.Equal(t, []string{"priceDecember2024", "priceJan2025", "priceJanuary2025", "priceMarch2025"}, names(reg.Prices))
	assert.Equal(t, []string{"indexJan2025", "indexFeb2025"}, names(reg.Indices))

	t.Run("first duplicate wins", func(t *testing.T) {
		col, ok := reg.PriceAt(domain.Period{Year: 2025, Month: 1})
		require.True(t, ok)
		assert.Equal(t, "priceJan2025", col.Name)
	})

	t.Run("previous skips gaps", func(t *testing.T) {
		col, ok := reg.PreviousPrice(domain.Period{Year: 2025, Month: 3})
		require.True(t, ok)
		assert.Equal(t, "priceJan2025", col.Name)
	})

	t.Run("nothing before earliest", func(t *testing.T) {
		_, ok := reg.PreviousPrice(domain.Period{Year: 2024, Month: 12})
		assert.False(t, ok)
	})

	t.Run("missing period", func(t *testing.T) {
		_, ok := reg.IndexAt(domain.Period{Year: 2025, Month: 3})
		assert.False(t, ok)
	})
}

func TestColumnRegistryHasTrend(t *testing.T) {
	assert.False(t, ClassifyColumns([]string{"priceJune2025", "indexJune2025"}).HasTrend())
	assert.True(t, ClassifyColumns([]string{"priceMay2025", "priceJune2025"}).HasTrend())
}

func TestDescribeColumns(t *testing.T) {
	headers := []string{"Part Number", "Vendor", "Commodity", "Price May 2025", "Price June 2025", "Price evo index June 2025"}

	report := DescribeColumns(headers, domain.Period{Year: 2025, Month: 6})

	assert.True(t, report.Ready)
	assert.Equal(t, "Price June 2025", report.TargetPrice)
	assert.Equal(t, "Price evo index June 2025", report.TargetIndex)
	assert.Equal(t, "Price May 2025", report.PreviousPrice)
	assert.Equal(t, "Vendor", report.Fields[FieldSupplier])
	assert.Equal(t, "Commodity", report.Fields[FieldMaterial])
	assert.Len(t, report.Columns.Prices, 2)

	missing := DescribeColumns(headers, domain.Period{Year: 2025, Month: 7})
	assert.False(t, missing.Ready)
	assert.Empty(t, missing.TargetPrice)
	assert.Equal(t, "Price June 2025", missing.PreviousPrice)
}
