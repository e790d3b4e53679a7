package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/pkg/contracts/domain"
)

func TestResolveFields(t *testing.T) {
	fields := ResolveFields([]string{"Part No.", "Vendor", "Commodity", "Part Name", "priceJune2025", "Supplier", "Site"})

	assert.Equal(t, "Part No.", fields[FieldPartNumber])
	assert.Equal(t, "Vendor", fields[FieldSupplier], "first matching header wins")
	assert.Equal(t, "Commodity", fields[FieldMaterial])
	assert.Equal(t, "Part Name", fields[FieldDescription])
	assert.Equal(t, "Site", fields[FieldLocation])
}

func TestIngest(t *testing.T) {
	table := &domain.Table{
		Headers: []string{"Part Number", "Supplier Name", "Material", "Description"},
		Rows: []map[string]string{
			{"Part Number": "P-1", "Supplier Name": " Acme ", "Material": " Steel ", "Description": "Bracket"},
			{"Part Number": "", "Supplier Name": "Acme"},
			{"Part Number": "P-3", "Supplier Name": "   "},
			{"Part Number": "Part Number", "Supplier Name": "Supplier Name"},
			{"Part Number": "P-5", "Supplier Name": "Beta"},
		},
	}

	rows, stats := Ingest(table)

	require.Len(t, rows, 2)
	assert.Equal(t, IngestStats{Total: 5, Accepted: 2, MissingIDs: 2, RepeatedHeader: 1}, stats)

	assert.Equal(t, "P-1", rows[0].PartNumber)
	assert.Equal(t, "Acme", rows[0].Supplier)
	assert.Equal(t, "Steel", rows[0].Material)
	assert.Equal(t, "Bracket", rows[0].Name())

	assert.Equal(t, "P-5", rows[1].PartNumber)
	assert.Empty(t, rows[1].Material)
	assert.Equal(t, "P-5", rows[1].Name(), "falls back to part number")
}

func TestIngestWithoutIdentifierColumns(t *testing.T) {
	table := &domain.Table{
		Headers: []string{"Supplier", "priceJune2025"},
		Rows:    []map[string]string{{"Supplier": "Acme", "priceJune2025": "10"}},
	}

	rows, stats := Ingest(table)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.MissingIDs)
}

func TestIngestEmptyTable(t *testing.T) {
	rows, stats := Ingest(nil)
	assert.Nil(t, rows)
	assert.Zero(t, stats.Total)
}

func TestFindPart(t *testing.T) {
	table := &domain.Table{
		Headers: []string{"PN", "Vendor"},
		Rows: []map[string]string{
			{"PN": "abc-1", "Vendor": "Acme"},
			{"PN": "ABC-1", "Vendor": "Beta"},
		},
	}

	cells, ok := FindPart(table, " ABC-1 ")
	require.True(t, ok)
	assert.Equal(t, "Acme", cells["Vendor"])

	_, ok = FindPart(table, "zzz")
	assert.False(t, ok)

	_, ok = FindPart(table, "")
	assert.False(t, ok)
}

func TestFindPart_RowWithoutSupplier(t *testing.T) {
	table := &domain.Table{
		Headers: []string{"Part Number", "Supplier", "Notes"},
		Rows: []map[string]string{
			{"Part Number": "P-9", "Supplier": "", "Notes": "supplier pending"},
		},
	}

	rows, _ := Ingest(table)
	assert.Empty(t, rows, "ingestion still drops the row")

	cells, ok := FindPart(table, "p-9")
	require.True(t, ok)
	assert.Equal(t, "supplier pending", cells["Notes"])

	_, ok = FindPart(&domain.Table{Headers: []string{"Notes"}, Rows: table.Rows}, "P-9")
	assert.False(t, ok, "no part number column")
}
