package analysis

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"procurement/pkg/contracts/domain"
)

// Row is one part/supplier record that passed ingestion
type Row struct {
	PartNumber  string
	Supplier    string
	Material    string
	Description string
	Location    string
	Cells       map[string]string

	position int
}

// Price parses the row's value in the given column
func (r *Row) Price(col PriceColumn) (decimal.Decimal, bool) {
	return ParsePrice(r.Cells[col.Name])
}

// Name is the descriptive name used for external lookups
func (r *Row) Name() string {
	if r.Description != "" {
		return r.Description
	}
	return r.PartNumber
}

// Field identifies a fixed, non-period column
type Field string

const (
	FieldPartNumber  Field = "part_number"
	FieldSupplier    Field = "supplier"
	FieldMaterial    Field = "material"
	FieldDescription Field = "description"
	FieldLocation    Field = "location"
)

// headerAliases are compared against headers normalized by normalizeHeader
var headerAliases = map[Field][]string{
	FieldPartNumber:  {"partnumber", "partno", "partnum", "pn"},
	FieldSupplier:    {"supplier", "suppliername", "vendor", "vendorname"},
	FieldMaterial:    {"material", "commodity", "materialgroup"},
	FieldDescription: {"description", "partname", "designation", "partdescription"},
	FieldLocation:    {"location", "plant", "site"},
}

// FieldColumns maps each fixed field to the header that carries it
type FieldColumns map[Field]string

// ResolveFields finds the header for each fixed field. The first matching
// header wins.
func ResolveFields(headers []string) FieldColumns {
	fields := make(FieldColumns, len(headerAliases))
	for _, header := range headers {
		norm := normalizeHeader(header)
		for field, aliases := range headerAliases {
			if _, done := fields[field]; done {
				continue
			}
			for _, alias := range aliases {
				if norm == alias {
					fields[field] = header
					break
				}
			}
		}
	}
	return fields
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IngestStats reports what ingestion dropped
type IngestStats struct {
	Total          int `json:"total"`
	Accepted       int `json:"accepted"`
	MissingIDs     int `json:"missing_ids"`
	RepeatedHeader int `json:"repeated_header"`
}

// Ingest turns raw table rows into Rows. Rows without a part number or a
// supplier are excluded, as are repeated header rows inside the data.
func Ingest(table *domain.Table) ([]Row, IngestStats) {
	stats := IngestStats{Total: table.Len()}
	if table.Len() == 0 {
		return nil, stats
	}

	fields := ResolveFields(table.Headers)
	partCol, supplierCol := fields[FieldPartNumber], fields[FieldSupplier]

	rows := make([]Row, 0, len(table.Rows))
	for _, cells := range table.Rows {
		part := strings.TrimSpace(cells[partCol])
		supplier := strings.TrimSpace(cells[supplierCol])

		if partCol == "" || supplierCol == "" || part == "" || supplier == "" {
			stats.MissingIDs++
			continue
		}
		if strings.EqualFold(part, strings.TrimSpace(partCol)) {
			stats.RepeatedHeader++
			continue
		}

		rows = append(rows, Row{
			PartNumber:  part,
			Supplier:    supplier,
			Material:    strings.TrimSpace(cells[fields[FieldMaterial]]),
			Description: strings.TrimSpace(cells[fields[FieldDescription]]),
			Location:    strings.TrimSpace(cells[fields[FieldLocation]]),
			Cells:       cells,
			position:    len(rows),
		})
	}

	stats.Accepted = len(rows)
	return rows, stats
}

// FindPart returns the raw cells of the first row whose part number matches,
// compared case-insensitively. It reads the table directly, so rows that
// ingestion would drop for a missing supplier are still found.
func FindPart(table *domain.Table, partNumber string) (map[string]string, bool) {
	want := strings.TrimSpace(partNumber)
	if want == "" || table == nil {
		return nil, false
	}

	partCol, ok := ResolveFields(table.Headers)[FieldPartNumber]
	if !ok {
		return nil, false
	}
	for _, cells := range table.Rows {
		if strings.EqualFold(strings.TrimSpace(cells[partCol]), want) {
			return cells, true
		}
	}
	return nil, false
}
