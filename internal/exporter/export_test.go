package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"procurement/pkg/contracts/domain"
)

func ptr(f float64) *float64 { return &f }

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		RunID:        "run-1",
		Status:       domain.AnalysisStatusCompleted,
		Mode:         domain.AnalysisModeFull,
		TargetPeriod: domain.Period{Year: 2025, Month: 6},
		Summary:      "Found 2 opportunities",
		Opportunities: []domain.Opportunity{
			{
				PartNumber:       "P-100",
				CurrentSupplier:  "Acme",
				PriceAndTrend:    "12.00 (+20.00% vs index)",
				Type:             domain.OpportunityRenegotiation,
				Description:      "Price above market index",
				Material:         "Steel",
				Location:         "Lyon",
				CurrentPrice:     ptr(12),
				PotentialSavings: ptr(2),
			},
			{
				PartNumber:      "P-100",
				CurrentSupplier: "Acme",
				PriceAndTrend:   "12.00 (+20.00% vs index)",
				Type:            domain.OpportunityOutsourcing,
				Description:     "External supplier, Delta Metals",
				SourceURL:       "https://delta.example/brackets",
			},
		},
		Counts:                domain.OpportunityCounts{Total: 2, Renegotiation: 1, Outsourcing: 1},
		TotalPotentialSavings: 2,
		Timestamp:             time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVWriter(nil).Write(&buf, WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "x,y"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Equal(t, "a,b\n1,\"x,y\"\n", string(buf.Bytes()[len(utf8BOM):]))
}

func TestCSVWriter_WriteResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(nil).WriteResult(&buf, sampleResult(), false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, OpportunityHeaders, records[0])
	assert.Equal(t, "P-100", records[1][0])
	assert.Equal(t, "Renegotiation", records[1][3])
	assert.Equal(t, "12.00", records[1][6])
	assert.Equal(t, "", records[1][9], "absent alternative price stays blank")
	assert.Equal(t, "2.00", records[1][10])
	assert.Equal(t, "https://delta.example/brackets", records[2][11])
	assert.Equal(t, "Lyon", records[1][12])
	assert.Equal(t, "", records[2][12])
}

func TestCSVWriter_WriteResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.csv")

	require.NoError(t, NewCSVWriter(nil).WriteResultFile(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "Opportunity Type")
}

func TestXLSXWriter_WriteResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, NewXLSXWriter(nil).WriteResultFile(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{OpportunitiesSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(OpportunitiesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, OpportunityHeaders, rows[0])
	assert.Equal(t, "Renegotiation", rows[1][3])
	assert.Equal(t, "12", rows[1][6])

	total, err := f.GetCellValue(SummarySheet, "B9")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	mode, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "full", mode)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(Stdout, sampleResult(), &buf, nil))
		assert.True(t, strings.HasPrefix(buf.String(), "Part Number,"))
	})

	t.Run("by extension", func(t *testing.T) {
		for _, name := range []string{"report.csv", "report.XLSX"} {
			path := filepath.Join(dir, name)
			require.NoError(t, Export(path, sampleResult(), nil, nil))
			assert.FileExists(t, path)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		err := Export(filepath.Join(dir, "report.pdf"), sampleResult(), nil, nil)
		assert.ErrorContains(t, err, "unsupported export format")
	})

	t.Run("nil result", func(t *testing.T) {
		assert.Error(t, Export(Stdout, nil, &bytes.Buffer{}, nil))
	})
}
